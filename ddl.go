// Package ddl executes schema statements against a class schema, and
// propagates them to replicas according to the consistency each statement
// requires.
package ddl

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/canonical/go-ddl/client"
	"github.com/canonical/go-ddl/internal/command"
	"github.com/canonical/go-ddl/internal/replication"
	"github.com/canonical/go-ddl/internal/schema"
	"github.com/canonical/go-ddl/logging"
	"github.com/canonical/go-ddl/tracing"
)

// Property is a convenience alias for schema.Property.
type Property = schema.Property

// Persister is a convenience alias for schema.Persister.
type Persister = schema.Persister

// Replica is a convenience alias for replication.Replica.
type Replica = replication.Replica

// Operation is a convenience alias for replication.Operation.
type Operation = replication.Operation

// ParseError is a convenience alias for command.ParseError.
type ParseError = command.ParseError

// ExecutionError is a convenience alias for command.ExecutionError.
type ExecutionError = command.ExecutionError

// ErrQuorumTimeout is returned by Exec when the replicas didn't acknowledge a
// statement in time. The statement has been rolled back locally.
var ErrQuorumTimeout = replication.ErrQuorumTimeout

// Database holds a class schema and applies statements to it.
type Database struct {
	log         client.LogFunc
	schema      *schema.Schema
	coordinator *replication.Coordinator
	metrics     *metrics
}

// New creates a database, loading the schema from the configured persister
// if any.
func New(ctx context.Context, options ...Option) (*Database, error) {
	o := defaultOptions()

	for _, option := range options {
		option(o)
	}

	s := schema.New(nil)
	if o.Persister != nil {
		var err error
		if s, err = schema.Open(ctx, o.Persister); err != nil {
			return nil, err
		}
	}

	m := newMetrics()
	if o.Registerer != nil {
		if err := m.register(o.Registerer); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}

	db := &Database{
		log:         o.Log,
		schema:      s,
		coordinator: replication.NewCoordinator(o.Replicas, o.Replication, logging.Prefixed(o.Log, "replication: ")),
		metrics:     m,
	}

	return db, nil
}

// CreateClass adds a class backed by the given clusters.
func (db *Database) CreateClass(ctx context.Context, name string, clusters ...int16) error {
	_, err := db.schema.CreateClass(ctx, name, clusters...)
	return err
}

// Classes returns the names of all classes, sorted.
func (db *Database) Classes() []string {
	classes := db.schema.Classes()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name()
	}
	return names
}

// Properties returns the properties of a class in creation order.
func (db *Database) Properties(class string) ([]Property, error) {
	c, ok := db.schema.Class(class)
	if !ok {
		return nil, errors.Errorf("class %s not found", class)
	}
	return c.Properties(), nil
}

// AddRecords adjusts the record counts of a cluster.
func (db *Database) AddRecords(cluster int16, live, tombstones int64) error {
	return db.schema.Clusters().Add(cluster, live, tombstones)
}

// Count returns the number of records held by the given clusters.
func (db *Database) Count(clusters []int16, tombstones bool) (int64, error) {
	return db.schema.Clusters().Count(clusters, tombstones)
}

// Exec parses and applies a schema statement, then replicates it.
//
// It returns the number of properties of the target class after the change.
// If the replicas don't acknowledge the statement as its quorum requires,
// the change is reverted and the replication error is returned.
func (db *Database) Exec(ctx context.Context, statement string) (int, error) {
	ctx, span := tracing.Start(ctx, "ddl.Exec", statement)
	defer span.End()

	start := time.Now()

	cmd, err := command.Parse(statement, db.schema)
	if err != nil {
		span.RecordError(err)
		db.metrics.statement(outcomeParse, start)
		return 0, err
	}

	n, err := cmd.Execute(ctx, db.schema)
	if err != nil {
		span.RecordError(err)
		db.metrics.statement(outcomeExecution, start)
		return 0, err
	}

	if err := db.replicate(ctx, cmd); err != nil {
		span.RecordError(err)
		db.metrics.statement(outcomeReplication, start)
		db.rollback(ctx, cmd)
		return 0, err
	}

	db.metrics.statement(outcomeOK, start)
	return n, nil
}

func (db *Database) replicate(ctx context.Context, cmd command.Command) error {
	if db.coordinator.Replicas() == 0 {
		return nil
	}

	ctx, span := tracing.Start(ctx, "ddl.Replicate", cmd.String())
	defer span.End()

	start := time.Now()
	defer func() {
		db.metrics.replication.WithLabelValues(cmd.Quorum().String()).Observe(time.Since(start).Seconds())
	}()

	result, err := db.coordinator.Replicate(ctx, cmd.String(), cmd.Quorum())
	if err != nil {
		span.RecordError(err)
		db.log(logging.Warn, "replicate %q: %v", cmd.String(), err)
		return errors.Wrap(err, "replicate")
	}
	db.log(logging.Debug, "replicated %q as %s with %d acks", cmd.String(), result.ID, result.Acks)
	return nil
}

// Revert the local effect of a command whose replication failed, and ask
// the replicas to do the same.
func (db *Database) rollback(ctx context.Context, cmd command.Command) {
	undo := cmd.Undo()
	if undo == "" {
		db.log(logging.Error, "no rollback for %q", cmd.String())
		return
	}

	// The caller context may be what made replication fail.
	ctx = context.WithoutCancel(ctx)

	if _, err := db.apply(ctx, undo); err != nil {
		db.log(logging.Error, "rollback %q: %v", undo, err)
		return
	}
	db.metrics.rollbacks.Inc()

	if _, err := db.coordinator.Replicate(ctx, undo, command.QuorumNone); err != nil {
		db.log(logging.Warn, "replicate rollback %q: %v", undo, err)
	}
}

// Parse and execute a statement locally, without replicating it.
func (db *Database) apply(ctx context.Context, statement string) (int, error) {
	cmd, err := command.Parse(statement, db.schema)
	if err != nil {
		return 0, err
	}
	return cmd.Execute(ctx, db.schema)
}

// Syntax returns the grammar of the supported statements.
func Syntax() []string {
	return []string{
		(&command.CreateProperty{}).Syntax(),
		(&command.DropProperty{}).Syntax(),
	}
}
