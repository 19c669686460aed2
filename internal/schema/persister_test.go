//go:build !nosqlite3

package schema_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // Go SQLite bindings
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/go-ddl/internal/schema"
)

func TestYamlPersister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	persister := schema.NewYamlPersister(path)

	snapshot, err := persister.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Classes)

	populate(t, persister)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: STRING")
	assert.Contains(t, string(data), "linkedClass: Person")

	reopened(t, schema.NewYamlPersister(path))
}

func TestDatabasePersister(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer db.Close()

	persister, err := schema.NewDatabasePersister(context.Background(), db)
	require.NoError(t, err)

	populate(t, persister)

	again, err := schema.NewDatabasePersister(context.Background(), db)
	require.NoError(t, err)
	reopened(t, again)
}

func populate(t *testing.T, persister schema.Persister) {
	t.Helper()

	s, err := schema.Open(context.Background(), persister)
	require.NoError(t, err)

	person, err := s.CreateClass(context.Background(), "Person", 3, 7)
	require.NoError(t, err)
	_, err = s.CreateClass(context.Background(), "Company", 9)
	require.NoError(t, err)

	min := "1"
	err = person.Mutate(context.Background(), func(tx *schema.ClassTx) error {
		p := schema.Property{Name: "name", Type: schema.String, Mandatory: true}
		if err := p.SetMin(&min); err != nil {
			return err
		}
		if err := tx.AddProperty(p); err != nil {
			return err
		}
		return tx.AddProperty(schema.Property{Name: "friends", Type: schema.LinkList, LinkedClass: "Person"})
	})
	require.NoError(t, err)
}

func reopened(t *testing.T, persister schema.Persister) {
	t.Helper()

	s, err := schema.Open(context.Background(), persister)
	require.NoError(t, err)

	classes := s.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, "Company", classes[0].Name())
	assert.Equal(t, "Person", classes[1].Name())

	person := classes[1]
	assert.Equal(t, []int16{3, 7}, person.Clusters())
	require.Equal(t, 2, person.PropertyCount())

	name, ok := person.Property("name")
	require.True(t, ok)
	assert.Equal(t, schema.String, name.Type)
	assert.True(t, name.Mandatory)
	require.NotNil(t, name.Min)
	assert.Equal(t, "1", *name.Min)

	friends, ok := person.Property("friends")
	require.True(t, ok)
	assert.Equal(t, schema.LinkList, friends.Type)
	assert.Equal(t, "Person", friends.LinkedClass)

	n, err := s.Clusters().Count([]int16{3, 7, 9}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
