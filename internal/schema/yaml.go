package schema

import (
	"context"
	"os"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/google/renameio"
	"github.com/pkg/errors"
)

// YamlPersister persists schema snapshots in a YAML file.
type YamlPersister struct {
	path string
	mu   sync.Mutex
}

// NewYamlPersister creates a new YamlPersister backed by the given file.
func NewYamlPersister(path string) *YamlPersister {
	return &YamlPersister{path: path}
}

// Load reads the snapshot from disk. A missing file yields an empty
// snapshot.
func (p *YamlPersister) Load(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := Snapshot{}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot, nil
		}
		return snapshot, err
	}

	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return snapshot, errors.Wrapf(err, "parse %s", p.path)
	}

	return snapshot, nil
}

// Save atomically replaces the file content with the given snapshot.
func (p *YamlPersister) Save(ctx context.Context, snapshot Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(p.path, data, 0600); err != nil {
		return err
	}

	return nil
}
