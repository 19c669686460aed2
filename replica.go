package ddl

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/canonical/go-ddl/logging"
)

// DefaultReplicaHistory is the number of recently applied operation IDs a
// LocalReplica remembers to acknowledge redeliveries without applying them
// again.
const DefaultReplicaHistory = 1024

// LocalReplica applies replicated statements to another database in the
// same process.
type LocalReplica struct {
	name string
	db   *Database

	mu  sync.Mutex
	ops *lru.Cache // IDs of recently applied operations
}

// NewLocalReplica returns a replica applying operations to db.
func NewLocalReplica(name string, db *Database) *LocalReplica {
	return NewLocalReplicaWithHistory(name, db, DefaultReplicaHistory)
}

// NewLocalReplicaWithHistory is like NewLocalReplica, but remembers the IDs
// of the given number of most recent operations. An operation redelivered
// after falling out of the history is applied again.
func NewLocalReplicaWithHistory(name string, db *Database, history int) *LocalReplica {
	if history <= 0 {
		history = DefaultReplicaHistory
	}
	ops, err := lru.New(history)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &LocalReplica{name: name, db: db, ops: ops}
}

// Name implements Replica.
func (r *LocalReplica) Name() string {
	return r.name
}

// Apply implements Replica. Recently applied operations are acknowledged
// again without being executed twice.
func (r *LocalReplica) Apply(ctx context.Context, op Operation) error {
	id := op.ID.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ops.Contains(id) {
		return nil
	}
	if _, err := r.db.apply(ctx, op.Statement); err != nil {
		return errors.Wrapf(err, "apply %s", id)
	}
	r.ops.Add(id, struct{}{})
	r.db.log(logging.Debug, "replica %s: applied %q", r.name, op.Statement)
	return nil
}

// History returns the number of operation IDs currently remembered.
func (r *LocalReplica) History() int {
	return r.ops.Len()
}
