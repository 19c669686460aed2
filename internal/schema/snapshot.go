package schema

import (
	"context"
)

// Snapshot is the serializable form of a schema.
type Snapshot struct {
	Classes []ClassInfo `json:"classes"`
}

// ClassInfo holds the definition of a single class.
type ClassInfo struct {
	Name       string     `json:"name"`
	Clusters   []int16    `json:"clusters,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// Persister stores schema snapshots.
//
// Save is invoked with the complete schema every time a class or a property
// changes; a failing Save aborts the change.
type Persister interface {
	// Load returns the last saved snapshot, or an empty one.
	Load(context.Context) (Snapshot, error)

	// Save replaces the stored snapshot.
	Save(context.Context, Snapshot) error
}
