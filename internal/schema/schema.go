package schema

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// Schema is the set of classes of a database. It is safe for concurrent use.
type Schema struct {
	classes   *xsync.MapOf[string, *Class] // Keyed by lower-cased name
	clusters  *Clusters
	persister Persister
	mu        sync.Mutex // Serialize snapshot persistence
}

// New creates an empty schema. If persister is nil, changes are kept in
// memory only.
func New(persister Persister) *Schema {
	return &Schema{
		classes:   xsync.NewMapOf[string, *Class](),
		clusters:  NewClusters(),
		persister: persister,
	}
}

// Open creates a schema populated with the snapshot held by persister.
func Open(ctx context.Context, persister Persister) (*Schema, error) {
	snapshot, err := persister.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load schema snapshot")
	}
	s := New(persister)
	for _, info := range snapshot.Classes {
		c := newClass(s, info.Name, info.Clusters)
		state := &classState{properties: map[string]Property{}}
		for _, p := range info.Properties {
			key := strings.ToLower(p.Name)
			if _, ok := state.properties[key]; ok {
				return nil, errors.Errorf("class %s: duplicate property %s", info.Name, p.Name)
			}
			state.properties[key] = p
			state.order = append(state.order, key)
		}
		c.state.Store(state)
		if _, loaded := s.classes.LoadOrStore(strings.ToLower(info.Name), c); loaded {
			return nil, errors.Errorf("duplicate class %s", info.Name)
		}
		for _, id := range info.Clusters {
			s.clusters.Register(id)
		}
	}
	return s, nil
}

// Class returns the class with the given name, ignoring case.
func (s *Schema) Class(name string) (*Class, bool) {
	return s.classes.Load(strings.ToLower(name))
}

// Classes returns all classes sorted by name.
func (s *Schema) Classes() []*Class {
	classes := make([]*Class, 0, s.classes.Size())
	s.classes.Range(func(_ string, c *Class) bool {
		classes = append(classes, c)
		return true
	})
	sort.Slice(classes, func(i, j int) bool {
		return strings.ToLower(classes[i].name) < strings.ToLower(classes[j].name)
	})
	return classes
}

// Clusters returns the record count registry of the clusters owned by the
// schema classes.
func (s *Schema) Clusters() *Clusters {
	return s.clusters
}

// CreateClass adds a new class backed by the given clusters.
func (s *Schema) CreateClass(ctx context.Context, name string, clusters ...int16) (*Class, error) {
	if name == "" {
		return nil, errors.New("empty class name")
	}
	c := newClass(s, name, clusters)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	if _, loaded := s.classes.LoadOrStore(key, c); loaded {
		return nil, errors.Errorf("class %s already exists", name)
	}
	if err := s.save(ctx, nil, nil); err != nil {
		s.classes.Delete(key)
		return nil, err
	}
	for _, id := range clusters {
		s.clusters.Register(id)
	}
	return c, nil
}

// Snapshot returns the committed state of all classes.
func (s *Schema) Snapshot() Snapshot {
	return s.snapshot(nil, nil)
}

// Persist the schema with the given class state in place of the committed
// one, and publish that state once the persister accepted it.
func (s *Schema) commit(ctx context.Context, c *Class, next *classState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, c, next); err != nil {
		return err
	}
	c.state.Store(next)
	return nil
}

func (s *Schema) save(ctx context.Context, c *Class, next *classState) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, s.snapshot(c, next)); err != nil {
		return errors.Wrap(err, "save schema snapshot")
	}
	return nil
}

func (s *Schema) snapshot(override *Class, next *classState) Snapshot {
	classes := s.Classes()
	snapshot := Snapshot{Classes: make([]ClassInfo, len(classes))}
	for i, c := range classes {
		state := c.state.Load()
		if c == override {
			state = next
		}
		snapshot.Classes[i] = ClassInfo{
			Name:       c.name,
			Clusters:   c.Clusters(),
			Properties: state.list(),
		}
	}
	return snapshot
}
