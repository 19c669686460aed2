package schema

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Class is a schema class. Reads never block; mutations of the same class
// are serialized through Mutate.
type Class struct {
	name     string
	clusters []int16
	schema   *Schema

	mu    sync.Mutex // Serialize mutations
	state atomic.Pointer[classState]
}

// Committed property set of a class. Never modified once published.
type classState struct {
	properties map[string]Property // Keyed by lower-cased name
	order      []string
}

func newClass(s *Schema, name string, clusters []int16) *Class {
	c := &Class{
		name:     name,
		clusters: append([]int16(nil), clusters...),
		schema:   s,
	}
	c.state.Store(&classState{properties: map[string]Property{}})
	return c
}

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Clusters returns the IDs of the clusters holding the records of the class.
func (c *Class) Clusters() []int16 {
	return append([]int16(nil), c.clusters...)
}

// Property returns the property with the given name, ignoring case.
func (c *Class) Property(name string) (Property, bool) {
	p, ok := c.state.Load().properties[strings.ToLower(name)]
	return p, ok
}

// Properties returns the properties of the class in creation order.
func (c *Class) Properties() []Property {
	return c.state.Load().list()
}

// PropertyCount returns the number of properties defined on the class.
func (c *Class) PropertyCount() int {
	return len(c.state.Load().order)
}

// Mutate runs f in the critical section of the class.
//
// The changes staged on the transaction are persisted and published only if
// f returns nil and the schema persister accepts the new snapshot. Otherwise
// the class is left untouched.
func (c *Class) Mutate(ctx context.Context, f func(*ClassTx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx := &ClassTx{class: c, base: c.state.Load()}
	if err := f(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	next := tx.next()
	return c.schema.commit(ctx, c, next)
}

func (s *classState) list() []Property {
	properties := make([]Property, len(s.order))
	for i, key := range s.order {
		properties[i] = s.properties[key]
	}
	return properties
}

// ClassTx stages changes to a class inside Class.Mutate.
type ClassTx struct {
	class   *Class
	base    *classState
	added   []Property
	dropped map[string]bool
	dirty   bool
}

// Class returns the class being mutated.
func (tx *ClassTx) Class() *Class {
	return tx.class
}

// Property looks up a property, taking staged changes into account.
func (tx *ClassTx) Property(name string) (Property, bool) {
	key := strings.ToLower(name)
	for _, p := range tx.added {
		if strings.ToLower(p.Name) == key {
			return p, true
		}
	}
	if tx.dropped[key] {
		return Property{}, false
	}
	p, ok := tx.base.properties[key]
	return p, ok
}

// PropertyCount returns the number of properties the class will have once
// the transaction commits.
func (tx *ClassTx) PropertyCount() int {
	return len(tx.base.order) - len(tx.dropped) + len(tx.added)
}

// AddProperty stages the addition of a new property.
func (tx *ClassTx) AddProperty(p Property) error {
	if p.Name == "" {
		return errors.New("empty property name")
	}
	if !p.Type.Valid() {
		return errors.Errorf("property %s: invalid type", p.Name)
	}
	if _, ok := tx.Property(p.Name); ok {
		return errors.Errorf("property %s.%s already exists", tx.class.name, p.Name)
	}
	tx.added = append(tx.added, p)
	tx.dirty = true
	return nil
}

// DropProperty stages the removal of an existing property.
func (tx *ClassTx) DropProperty(name string) error {
	key := strings.ToLower(name)
	for i, p := range tx.added {
		if strings.ToLower(p.Name) == key {
			tx.added = append(tx.added[:i], tx.added[i+1:]...)
			return nil
		}
	}
	if _, ok := tx.base.properties[key]; !ok || tx.dropped[key] {
		return errors.Errorf("property %s.%s not found", tx.class.name, name)
	}
	if tx.dropped == nil {
		tx.dropped = map[string]bool{}
	}
	tx.dropped[key] = true
	tx.dirty = true
	return nil
}

func (tx *ClassTx) next() *classState {
	state := &classState{
		properties: make(map[string]Property, tx.PropertyCount()),
		order:      make([]string, 0, tx.PropertyCount()),
	}
	for _, key := range tx.base.order {
		if tx.dropped[key] {
			continue
		}
		state.properties[key] = tx.base.properties[key]
		state.order = append(state.order, key)
	}
	for _, p := range tx.added {
		key := strings.ToLower(p.Name)
		state.properties[key] = p
		state.order = append(state.order, key)
	}
	return state
}
