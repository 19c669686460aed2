package ddl

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/canonical/go-ddl/client"
	"github.com/canonical/go-ddl/internal/protocol"
	"github.com/canonical/go-ddl/logging"
)

// Server answers cluster count requests over the network.
type Server struct {
	log      client.LogFunc // Logger
	db       *Database
	listener net.Listener // Queue of new connections
	acceptCh chan error   // Receives the accept loop return
	sessions *xsync.MapOf[int32, *protocol.Protocol]
	lastID   atomic.Int32
	timeout  time.Duration // Handshake timeout
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup // Connection handlers
}

// ServerOption can be used to tweak server parameters.
type ServerOption func(*serverOptions)

// WithServerLogFunc sets a custom log function for the server.
func WithServerLogFunc(log client.LogFunc) ServerOption {
	return func(options *serverOptions) {
		options.Log = log
	}
}

// WithHandshakeTimeout sets how long a new connection has to complete the
// handshake.
func WithHandshakeTimeout(timeout time.Duration) ServerOption {
	return func(options *serverOptions) {
		options.HandshakeTimeout = timeout
	}
}

// Hold configuration options for a server.
type serverOptions struct {
	Log              client.LogFunc
	HandshakeTimeout time.Duration
}

// Create a serverOptions object with sane defaults.
func defaultServerOptions() *serverOptions {
	return &serverOptions{
		Log:              client.DefaultLogFunc,
		HandshakeTimeout: 5 * time.Second,
	}
}

// NewServer creates a server answering requests about the given database.
func NewServer(db *Database, options ...ServerOption) *Server {
	o := defaultServerOptions()

	for _, option := range options {
		option(o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		log:      o.Log,
		db:       db,
		acceptCh: make(chan error, 1),
		sessions: xsync.NewMapOf[int32, *protocol.Protocol](),
		timeout:  o.HandshakeTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start serving requests.
func (s *Server) Start(listener net.Listener) error {
	if s.listener != nil {
		return fmt.Errorf("server already started")
	}
	s.listener = listener
	go s.acceptLoop()
	return nil
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	return s.sessions.Size()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				err = nil
			}
			s.acceptCh <- err
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()

	id := s.lastID.Add(1)
	log := logging.Prefixed(s.log, fmt.Sprintf("session %d: ", id))

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	p, err := protocol.Accept(ctx, conn, id)
	cancel()
	if err != nil {
		log(logging.Warn, "%v", err)
		conn.Close()
		return
	}

	s.sessions.Store(id, p)
	defer s.sessions.Delete(id)
	defer p.Close()

	log(logging.Debug, "opened from %s", conn.RemoteAddr())

	response := protocol.Message{}
	response.Init(64)

	for {
		code, session, d, err := p.Next(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				log(logging.Debug, "closed: %v", err)
			}
			return
		}

		if err := s.serve(code, session, d, &response); err != nil {
			log(logging.Warn, "%v", err)
			// The stream can't be resynchronized.
			if err := p.Send(s.ctx, &response); err != nil {
				log(logging.Warn, "send failure: %v", err)
			}
			return
		}

		if err := p.Send(s.ctx, &response); err != nil {
			log(logging.Warn, "%v", err)
			return
		}
	}
}

// Decode a request and fill in the response. A non-nil error means the
// request payload could not be consumed, the connection must be dropped
// after sending the response.
func (s *Server) serve(code uint8, session int32, d *protocol.Decoder, response *protocol.Message) error {
	switch code {
	case protocol.RequestDataClusterCount:
		request, err := protocol.DecodeCountRequest(d)
		if err != nil {
			protocol.EncodeFailure(response, session, err.Error())
			s.db.metrics.counts.WithLabelValues("error").Inc()
			return err
		}
		count, err := s.db.Count(request.ClusterIDs, request.Tombstones)
		if err != nil {
			protocol.EncodeFailure(response, session, err.Error())
			s.db.metrics.counts.WithLabelValues("error").Inc()
			return nil
		}
		protocol.EncodeCount(response, session, count)
		s.db.metrics.counts.WithLabelValues("ok").Inc()
		return nil
	default:
		err := errors.Errorf("unknown request %d", code)
		protocol.EncodeFailure(response, session, err.Error())
		return err
	}
}

// Close the server, releasing all resources it created.
func (s *Server) Close() error {
	s.cancel()

	if s.listener == nil {
		return nil
	}

	// Close the listener, which will make the listener.Accept() call in
	// acceptLoop() return an error.
	if err := s.listener.Close(); err != nil {
		return err
	}

	// Wait for the acceptLoop goroutine to exit.
	select {
	case err := <-s.acceptCh:
		if err != nil {
			return errors.Wrap(err, "accept goroutine failed")
		}
	case <-time.After(time.Second):
		return fmt.Errorf("accept goroutine did not stop within a second")
	}

	s.sessions.Range(func(_ int32, p *protocol.Protocol) bool {
		p.Close()
		return true
	})
	s.wg.Wait()

	return nil
}
