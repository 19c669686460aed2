package client

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/canonical/go-ddl/internal/protocol"
)

// DialFunc is a function that can be used to establish a network connection.
type DialFunc = protocol.DialFunc

// ErrRequest is returned when the server answers with an error.
type ErrRequest = protocol.ErrRequest

// Client speaks to a ddl server over a single session.
type Client struct {
	session *protocol.Session
}

// Option that can be used to tweak client parameters.
type Option func(*options)

type options struct {
	DialFunc    DialFunc
	LogFunc     LogFunc
	DialTimeout time.Duration
	RetryLimit  uint
}

// WithDialFunc sets a custom dial function for creating the client network
// connection.
func WithDialFunc(dial DialFunc) Option {
	return func(options *options) {
		options.DialFunc = dial
	}
}

// WithLogFunc sets a custom log function.
func WithLogFunc(log LogFunc) Option {
	return func(options *options) {
		options.LogFunc = log
	}
}

// WithDialTimeout sets the timeout of each connection attempt.
func WithDialTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.DialTimeout = timeout
	}
}

// WithRetryLimit sets how many times connecting is retried, 0 meaning until
// the context is done.
func WithRetryLimit(limit uint) Option {
	return func(options *options) {
		options.RetryLimit = limit
	}
}

// New creates a new client connected to the server at the given address.
func New(ctx context.Context, address string, options ...Option) (*Client, error) {
	return Connect(ctx, []string{address}, options...)
}

// Connect creates a new client connected to the first server accepting a
// session, trying the addresses in order.
func Connect(ctx context.Context, addresses []string, options ...Option) (*Client, error) {
	o := defaultOptions()

	for _, option := range options {
		option(o)
	}

	config := protocol.Config{
		Dial:        o.DialFunc,
		DialTimeout: o.DialTimeout,
		RetryLimit:  o.RetryLimit,
	}
	connector := protocol.NewConnector(addresses, config, o.LogFunc)
	session, err := connector.Connect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to establish network connection")
	}

	return &Client{session: session}, nil
}

// Session returns the ID the server assigned to the client session.
func (c *Client) Session() int32 {
	return c.session.ID()
}

// Count returns the number of records held by the given clusters, including
// tombstoned records if requested.
func (c *Client) Count(ctx context.Context, clusters []int16, tombstones bool) (int64, error) {
	request := protocol.CountRequest{ClusterIDs: clusters, Tombstones: tombstones}

	var count int64
	err := c.session.Call(ctx, request, func(d *protocol.Decoder) error {
		var err error
		count, err = protocol.DecodeCount(d)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count records")
	}

	return count, nil
}

// Close the client.
func (c *Client) Close() error {
	return c.session.Close()
}

// Create a client options object with sane defaults.
func defaultOptions() *options {
	return &options{
		DialFunc: DefaultDialFunc,
		LogFunc:  DefaultLogFunc,
	}
}
