// Package replication propagates schema statements to replica servers and
// waits for the number of acknowledgments their quorum requires.
package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/canonical/go-ddl/internal/command"
	"github.com/canonical/go-ddl/logging"
)

// ErrQuorumTimeout is returned when not enough replicas acknowledged an
// operation within the configured timeout. The caller may retry the whole
// statement.
var ErrQuorumTimeout = fmt.Errorf("quorum not reached within timeout")

// ErrQuorumUnreachable is returned when so many replicas failed that the
// quorum can't be reached anymore.
var ErrQuorumUnreachable = fmt.Errorf("quorum unreachable")

// Operation is a statement to apply on a replica.
type Operation struct {
	ID        uuid.UUID
	Statement string
	Quorum    command.Quorum
}

// Replica applies operations on a remote copy of the schema.
type Replica interface {
	// Name identifies the replica in logs.
	Name() string

	// Apply executes the operation, returning once it is durable on the
	// replica.
	Apply(ctx context.Context, op Operation) error
}

// Config holds the coordinator parameters.
type Config struct {
	Timeout       time.Duration // Maximum time to wait for the quorum.
	MaxConcurrent int64         // Maximum number of replicas contacted at once.
}

// Result describes a completed replication.
type Result struct {
	ID       uuid.UUID
	Acks     int // Acknowledgments received before returning.
	Required int
}

// Coordinator fans operations out to a fixed set of replicas.
type Coordinator struct {
	replicas []Replica
	config   Config
	log      logging.Func
}

// NewCoordinator returns a coordinator for the given replicas.
func NewCoordinator(replicas []Replica, config Config, log logging.Func) *Coordinator {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Coordinator{
		replicas: append([]Replica(nil), replicas...),
		config:   config,
		log:      log,
	}
}

// Replicas returns the number of replicas operations are sent to.
func (c *Coordinator) Replicas() int {
	return len(c.replicas)
}

// Replicate sends the statement to every replica and waits until the number
// of acknowledgments implied by quorum is reached.
//
// Replicas that didn't answer yet keep applying the operation in the
// background until the configured timeout expires. With QuorumNone the
// function returns right away.
func (c *Coordinator) Replicate(ctx context.Context, statement string, quorum command.Quorum) (Result, error) {
	op := Operation{ID: uuid.New(), Statement: statement, Quorum: quorum}
	result := Result{ID: op.ID, Required: quorum.Required(len(c.replicas))}
	log := logging.Prefixed(c.log, fmt.Sprintf("op %s: ", op.ID))

	if len(c.replicas) == 0 {
		return result, nil
	}

	log(logging.Debug, "replicate %q to %d replicas (quorum %s, %d acks)",
		statement, len(c.replicas), quorum, result.Required)

	// The fan-out outlives the caller when the quorum is reached early.
	fanCtx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)

	n := len(c.replicas)
	results := make(chan error, n)
	sem := semaphore.NewWeighted(c.config.MaxConcurrent)
	for _, replica := range c.replicas {
		go func(replica Replica) {
			err := c.apply(fanCtx, sem, replica, op)
			if err != nil {
				log(logging.Warn, "replica %s: %v", replica.Name(), err)
			}
			results <- err
		}(replica)
	}

	received := 0
	defer func() {
		go func(received int) {
			for ; received < n; received++ {
				<-results
			}
			cancel()
		}(received)
	}()

	if result.Required == 0 {
		return result, nil
	}

	failures := 0
	for received < n {
		select {
		case err := <-results:
			received++
			if err != nil {
				if fanCtx.Err() != nil {
					return result, ErrQuorumTimeout
				}
				failures++
				if failures > n-result.Required {
					return result, errors.Wrapf(ErrQuorumUnreachable, "%d of %d replicas failed, last: %v", failures, n, err)
				}
				continue
			}
			result.Acks++
			if result.Acks >= result.Required {
				log(logging.Debug, "quorum reached with %d acks", result.Acks)
				return result, nil
			}
		case <-fanCtx.Done():
			return result, ErrQuorumTimeout
		case <-ctx.Done():
			return result, errors.Wrap(ctx.Err(), "wait quorum")
		}
	}

	return result, ErrQuorumUnreachable
}

func (c *Coordinator) apply(ctx context.Context, sem *semaphore.Weighted, replica Replica, op Operation) error {
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)
	return replica.Apply(ctx, op)
}
