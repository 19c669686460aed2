package replication_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/go-ddl/internal/command"
	"github.com/canonical/go-ddl/internal/replication"
	"github.com/canonical/go-ddl/logging"
)

func TestCoordinator_AllAck(t *testing.T) {
	replicas := []replication.Replica{newReplica("a"), newReplica("b"), newReplica("c")}
	coordinator := replication.NewCoordinator(replicas, replication.Config{Timeout: time.Second}, logging.Test(t))

	result, err := coordinator.Replicate(context.Background(), "DROP PROPERTY Person.name", command.QuorumAll)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Acks)
	assert.Equal(t, 3, result.Required)
	for _, replica := range replicas {
		ops := replica.(*fakeReplica).Applied()
		require.Len(t, ops, 1)
		assert.Equal(t, result.ID, ops[0].ID)
		assert.Equal(t, "DROP PROPERTY Person.name", ops[0].Statement)
		assert.Equal(t, command.QuorumAll, ops[0].Quorum)
	}
}

// A majority quorum returns as soon as enough replicas acknowledged, while
// the slow one keeps going in the background.
func TestCoordinator_MajorityIgnoresSlowReplica(t *testing.T) {
	slow := newReplica("slow")
	slow.delay = 200 * time.Millisecond
	replicas := []replication.Replica{newReplica("a"), newReplica("b"), slow}
	coordinator := replication.NewCoordinator(replicas, replication.Config{Timeout: time.Second}, logging.Test(t))

	start := time.Now()
	result, err := coordinator.Replicate(context.Background(), "stmt", command.QuorumMajority)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Acks)
	assert.Less(t, time.Since(start), 150*time.Millisecond)

	assert.Eventually(t, func() bool { return len(slow.Applied()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestCoordinator_AllTimeout(t *testing.T) {
	slow := newReplica("slow")
	slow.delay = time.Second
	replicas := []replication.Replica{newReplica("a"), slow}
	coordinator := replication.NewCoordinator(replicas, replication.Config{Timeout: 50 * time.Millisecond}, logging.Test(t))

	result, err := coordinator.Replicate(context.Background(), "stmt", command.QuorumAll)
	assert.Equal(t, replication.ErrQuorumTimeout, err)
	assert.Equal(t, 2, result.Required)
}

func TestCoordinator_Unreachable(t *testing.T) {
	failing := newReplica("failing")
	failing.err = fmt.Errorf("disk full")
	replicas := []replication.Replica{newReplica("a"), failing, newReplica("c")}
	coordinator := replication.NewCoordinator(replicas, replication.Config{Timeout: time.Second}, logging.Test(t))

	_, err := coordinator.Replicate(context.Background(), "stmt", command.QuorumAll)
	require.Error(t, err)

	assert.Equal(t, replication.ErrQuorumUnreachable, errors.Cause(err))
	assert.Contains(t, err.Error(), "disk full")
}

// A single failure is tolerated by a majority of three.
func TestCoordinator_MajorityToleratesFailure(t *testing.T) {
	failing := newReplica("failing")
	failing.err = fmt.Errorf("disk full")
	replicas := []replication.Replica{newReplica("a"), failing, newReplica("c")}
	coordinator := replication.NewCoordinator(replicas, replication.Config{Timeout: time.Second}, logging.Test(t))

	result, err := coordinator.Replicate(context.Background(), "stmt", command.QuorumMajority)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Acks)
}

func TestCoordinator_None(t *testing.T) {
	slow := newReplica("slow")
	slow.delay = 100 * time.Millisecond
	coordinator := replication.NewCoordinator([]replication.Replica{slow}, replication.Config{}, logging.Test(t))

	result, err := coordinator.Replicate(context.Background(), "stmt", command.QuorumNone)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Acks)
	assert.Equal(t, 0, result.Required)

	assert.Eventually(t, func() bool { return len(slow.Applied()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestCoordinator_NoReplicas(t *testing.T) {
	coordinator := replication.NewCoordinator(nil, replication.Config{}, logging.Test(t))

	result, err := coordinator.Replicate(context.Background(), "stmt", command.QuorumAll)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Required)
}

func TestCoordinator_ContextCanceled(t *testing.T) {
	slow := newReplica("slow")
	slow.delay = time.Second
	coordinator := replication.NewCoordinator([]replication.Replica{slow}, replication.Config{Timeout: 5 * time.Second}, logging.Test(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := coordinator.Replicate(ctx, "stmt", command.QuorumOne)
	assert.Equal(t, context.DeadlineExceeded, errors.Cause(err))
}

// No more than MaxConcurrent replicas are contacted at the same time.
func TestCoordinator_MaxConcurrent(t *testing.T) {
	var running, peak int32
	replicas := make([]replication.Replica, 6)
	for i := range replicas {
		replica := newReplica(fmt.Sprintf("r%d", i))
		replica.delay = 20 * time.Millisecond
		replica.running = &running
		replica.peak = &peak
		replicas[i] = replica
	}
	config := replication.Config{Timeout: time.Second, MaxConcurrent: 2}
	coordinator := replication.NewCoordinator(replicas, config, logging.Test(t))

	_, err := coordinator.Replicate(context.Background(), "stmt", command.QuorumAll)
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestQuorum_Required(t *testing.T) {
	cases := []struct {
		quorum   command.Quorum
		replicas int
		required int
	}{
		{command.QuorumNone, 3, 0},
		{command.QuorumOne, 3, 1},
		{command.QuorumOne, 0, 0},
		{command.QuorumMajority, 3, 2},
		{command.QuorumMajority, 4, 3},
		{command.QuorumAll, 3, 3},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s-%d", c.quorum, c.replicas), func(t *testing.T) {
			assert.Equal(t, c.required, c.quorum.Required(c.replicas))
		})
	}
}

type fakeReplica struct {
	name    string
	delay   time.Duration
	err     error
	running *int32
	peak    *int32

	mu      sync.Mutex
	applied []replication.Operation
}

func newReplica(name string) *fakeReplica {
	return &fakeReplica{name: name}
}

func (r *fakeReplica) Name() string {
	return r.name
}

func (r *fakeReplica) Apply(ctx context.Context, op replication.Operation) error {
	if r.running != nil {
		n := atomic.AddInt32(r.running, 1)
		defer atomic.AddInt32(r.running, -1)
		for {
			peak := atomic.LoadInt32(r.peak)
			if n <= peak || atomic.CompareAndSwapInt32(r.peak, peak, n) {
				break
			}
		}
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, op)
	return nil
}

func (r *fakeReplica) Applied() []replication.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]replication.Operation(nil), r.applied...)
}
