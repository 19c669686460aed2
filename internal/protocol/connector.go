package protocol

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/Rican7/retry"
	"github.com/pkg/errors"

	"github.com/canonical/go-ddl/logging"
)

// VersionOne is the current protocol version.
const VersionOne = uint16(1)

// Session ID sent back by a server refusing the client protocol version.
const sessionRefused = int32(-1)

// ErrNoAvailableServer is returned when no server could be connected.
var ErrNoAvailableServer = fmt.Errorf("no available server")

var errBadProtocol = fmt.Errorf("bad protocol")

// Connector opens sessions against one of a set of servers.
type Connector struct {
	addresses []string
	config    Config       // Connection parameters.
	log       logging.Func // Logging function.
}

// NewConnector returns a connector trying the given server addresses in
// order.
func NewConnector(addresses []string, config Config, log logging.Func) *Connector {
	return &Connector{
		addresses: append([]string(nil), addresses...),
		config:    config.withDefaults(),
		log:       log,
	}
}

// Connect establishes a session with the first server accepting it,
// retrying according to the configured strategies.
func (c *Connector) Connect(ctx context.Context) (*Session, error) {
	var session *Session
	err := retry.Retry(func(attempt uint) error {
		log := logging.Prefixed(c.log, fmt.Sprintf("attempt %d: ", attempt))

		if attempt > 1 {
			select {
			case <-ctx.Done():
				// Stop retrying
				return nil
			default:
			}
		}

		var err error
		session, err = c.connectAttemptAll(ctx, log)
		return err
	}, c.config.RetryStrategies()...)

	if err != nil || ctx.Err() != nil {
		return nil, ErrNoAvailableServer
	}

	// At this point we should have a connected session, since the retry
	// loop didn't hit any error and the given context hasn't expired.
	if session == nil {
		panic("no session object")
	}

	return session, nil
}

func (c *Connector) connectAttemptAll(ctx context.Context, log logging.Func) (*Session, error) {
	for _, address := range c.addresses {
		session, err := c.connectAttemptOne(ctx, address)
		if err != nil {
			log(logging.Warn, "server %s: %v", address, err)
			continue
		}
		log(logging.Debug, "server %s: session %d", address, session.ID())
		return session, nil
	}
	return nil, ErrNoAvailableServer
}

func (c *Connector) connectAttemptOne(ctx context.Context, address string) (*Session, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
	defer cancel()

	conn, err := c.config.Dial(dialCtx, address)
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}

	ctx, cancel = context.WithTimeout(ctx, c.config.AttemptTimeout)
	defer cancel()

	session, err := Handshake(ctx, conn, VersionOne)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "handshake")
	}
	return session, nil
}

// Handshake performs the client side of the initial handshake: send the
// protocol version and receive the session ID assigned by the server.
func Handshake(ctx context.Context, conn net.Conn, version uint16) (*Session, error) {
	// Honor the ctx deadline, if present.
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf, version)
	n, err := conn.Write(buf[:2])
	if err != nil {
		return nil, errors.Wrap(err, "write handshake")
	}
	if n != 2 {
		return nil, errors.Wrap(io.ErrShortWrite, "short handshake write")
	}

	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, errors.Wrap(err, "read session")
	}
	id := int32(binary.BigEndian.Uint32(buf))
	if id == sessionRefused {
		return nil, errBadProtocol
	}

	return NewSession(id, NewProtocol(version, conn)), nil
}

// Accept performs the server side of the initial handshake, assigning the
// given session ID if the client speaks a supported version.
func Accept(ctx context.Context, conn net.Conn, id int32) (*Protocol, error) {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf[:2]); err != nil {
		return nil, errors.Wrap(err, "read handshake")
	}
	version := binary.BigEndian.Uint16(buf)
	if version != VersionOne {
		id = sessionRefused
	}

	binary.BigEndian.PutUint32(buf, uint32(id))
	if _, err := conn.Write(buf); err != nil {
		return nil, errors.Wrap(err, "write session")
	}
	if id == sessionRefused {
		return nil, errors.Wrapf(errBadProtocol, "version %d", version)
	}

	return NewProtocol(version, conn), nil
}
