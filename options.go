package ddl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/go-ddl/client"
	"github.com/canonical/go-ddl/internal/replication"
	"github.com/canonical/go-ddl/internal/schema"
)

// DefaultReplicationTimeout is how long Exec waits for the replicas to
// acknowledge a statement, unless WithReplicationTimeout says otherwise.
const DefaultReplicationTimeout = 5 * time.Second

// Option can be used to tweak database parameters.
type Option func(*options)

// WithLogFunc sets a custom logging function.
func WithLogFunc(log client.LogFunc) Option {
	return func(options *options) {
		options.Log = log
	}
}

// WithPersister sets where the schema is loaded from and saved to. By
// default the schema lives in memory only.
func WithPersister(persister Persister) Option {
	return func(options *options) {
		options.Persister = persister
	}
}

// WithYamlFile persists the schema as a YAML document at the given path.
func WithYamlFile(path string) Option {
	return WithPersister(schema.NewYamlPersister(path))
}

// WithReplicas sets the replicas every statement is propagated to.
func WithReplicas(replicas ...Replica) Option {
	return func(options *options) {
		options.Replicas = append(options.Replicas, replicas...)
	}
}

// WithReplicationTimeout sets how long to wait for the quorum of replicas
// required by a statement.
func WithReplicationTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.Replication.Timeout = timeout
	}
}

// WithMaxConcurrentReplicas sets how many replicas are contacted at once.
func WithMaxConcurrentReplicas(n int64) Option {
	return func(options *options) {
		options.Replication.MaxConcurrent = n
	}
}

// WithRegisterer sets the registry database metrics are registered with.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(options *options) {
		options.Registerer = registerer
	}
}

// Hold configuration options for a database.
type options struct {
	Log         client.LogFunc
	Persister   Persister
	Replicas    []Replica
	Replication replication.Config
	Registerer  prometheus.Registerer
}

// Create a options object with sane defaults.
func defaultOptions() *options {
	return &options{
		Log: client.DefaultLogFunc,
		Replication: replication.Config{
			Timeout:       DefaultReplicationTimeout,
			MaxConcurrent: 10,
		},
	}
}
