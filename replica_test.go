package ddl_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddl "github.com/canonical/go-ddl"
)

func TestLocalReplica_Redelivery(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	replica := ddl.NewLocalReplica("r1", db)

	op := ddl.Operation{ID: uuid.New(), Statement: "CREATE PROPERTY Person.name STRING"}
	require.NoError(t, replica.Apply(ctx, op))
	require.NoError(t, replica.Apply(ctx, op))

	properties, err := db.Properties("Person")
	require.NoError(t, err)
	assert.Len(t, properties, 1)
}

func TestLocalReplica_HistoryBounded(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	replica := ddl.NewLocalReplicaWithHistory("r1", db, 2)

	first := ddl.Operation{ID: uuid.New(), Statement: "CREATE PROPERTY Person.a STRING"}
	require.NoError(t, replica.Apply(ctx, first))
	for _, name := range []string{"b", "c", "d"} {
		op := ddl.Operation{ID: uuid.New(), Statement: "CREATE PROPERTY Person." + name + " STRING"}
		require.NoError(t, replica.Apply(ctx, op))
	}
	assert.Equal(t, 2, replica.History())

	// The first operation fell out of the history, so it is executed again.
	err := replica.Apply(ctx, first)
	assert.EqualError(t, err, "apply "+first.ID.String()+": property 'Person.a' already exists. Remove it before to retry")
}

func TestLocalReplica_FailureNotRemembered(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	replica := ddl.NewLocalReplica("r1", db)

	op := ddl.Operation{ID: uuid.New(), Statement: "CREATE PROPERTY Nobody.name STRING"}
	require.Error(t, replica.Apply(ctx, op))
	assert.Equal(t, 0, replica.History())
}
