package schema

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// Clusters tracks the number of records held by each cluster.
type Clusters struct {
	counters *xsync.MapOf[int16, *clusterCounter]
}

type clusterCounter struct {
	live       atomic.Int64
	tombstones atomic.Int64
}

// NewClusters creates an empty registry.
func NewClusters() *Clusters {
	return &Clusters{counters: xsync.NewMapOf[int16, *clusterCounter]()}
}

// Register makes the cluster known, with no records. Registering a known
// cluster is a no-op.
func (c *Clusters) Register(id int16) {
	c.counters.LoadOrStore(id, &clusterCounter{})
}

// Add adjusts the live and tombstoned record counts of a cluster.
func (c *Clusters) Add(id int16, live, tombstones int64) error {
	counter, ok := c.counters.Load(id)
	if !ok {
		return errors.Errorf("cluster %d not found", id)
	}
	counter.live.Add(live)
	counter.tombstones.Add(tombstones)
	return nil
}

// Count returns the total number of records in the given clusters,
// including tombstoned records if requested.
func (c *Clusters) Count(ids []int16, tombstones bool) (int64, error) {
	var total int64
	for _, id := range ids {
		counter, ok := c.counters.Load(id)
		if !ok {
			return 0, errors.Errorf("cluster %d not found", id)
		}
		total += counter.live.Load()
		if tombstones {
			total += counter.tombstones.Load()
		}
	}
	return total, nil
}
