package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Protocol sends and receives request and response messages on the wire.
type Protocol struct {
	version uint16     // Protocol version
	conn    net.Conn   // Underlying network connection.
	dec     *Decoder   // Buffered reader over conn.
	mu      sync.Mutex // Serialize writes and request/response pairs
	netErr  error      // A network error occurred
}

// NewProtocol wraps an established connection.
func NewProtocol(version uint16, conn net.Conn) *Protocol {
	return &Protocol{
		version: version,
		conn:    conn,
		dec:     NewDecoder(bufio.NewReader(conn)),
	}
}

// Version returns the protocol version negotiated by the handshake.
func (p *Protocol) Version() uint16 {
	return p.version
}

// Call sends a request message and receives the matching response. On a
// successful response, decode is invoked to read the payload before any
// other request can use the connection. On an error response, an ErrRequest
// is returned.
func (p *Protocol) Call(ctx context.Context, request *Message, decode func(*Decoder) error) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.netErr; err != nil {
		return
	}

	defer func() {
		if err == nil {
			return
		}
		switch errors.Cause(err).(type) {
		case *net.OpError:
			p.netErr = err
		}
	}()

	budget, done := p.honor(ctx)
	defer done()

	desc := requestDesc(request.mtype)

	if err = p.send(request); err != nil {
		return errors.Wrapf(err, "call %s (%s): send", desc, describe(ctx, budget))
	}

	status, _ := p.dec.Header()
	if err = p.dec.Err(); err != nil {
		p.netErr = err
		return errors.Wrapf(err, "call %s (%s): receive", desc, describe(ctx, budget))
	}

	switch status {
	case ResponseOK:
		err = decode(p.dec)
	case ResponseError:
		message := p.dec.String(maxErrorSize)
		if err = p.dec.Err(); err == nil {
			err = ErrRequest{Message: message}
		}
	default:
		err = errors.Errorf("unexpected response status %d", status)
	}
	if derr := p.dec.Err(); derr != nil {
		// The stream position is lost, the connection can't be reused.
		p.netErr = derr
	}

	return
}

// Send writes a message without waiting for a response.
func (p *Protocol) Send(ctx context.Context, m *Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.netErr != nil {
		return p.netErr
	}

	budget, done := p.honor(ctx)
	defer done()

	if err := p.send(m); err != nil {
		p.netErr = err
		return errors.Wrapf(err, "send (%s)", describe(ctx, budget))
	}
	return nil
}

// Next blocks until the header of the next incoming message is read, and
// returns its type, its session and a decoder positioned at its payload.
//
// Only a single goroutine may consume incoming messages.
func (p *Protocol) Next(ctx context.Context) (uint8, int32, *Decoder, error) {
	_, done := p.honor(ctx)
	defer done()

	mtype, session := p.dec.Header()
	if err := p.dec.Err(); err != nil {
		return 0, 0, nil, err
	}
	return mtype, session, p.dec, nil
}

// Close the underlying connection.
func (p *Protocol) Close() error {
	return p.conn.Close()
}

func (p *Protocol) send(m *Message) error {
	data := m.Bytes()
	n, err := p.conn.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return nil
}

// Honor the ctx deadline and cancellation, if present. The returned function
// must be called once the I/O is over.
func (p *Protocol) honor(ctx context.Context) (time.Duration, func()) {
	var budget time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		p.conn.SetDeadline(deadline)
		budget = time.Until(deadline)
	}

	stop := make(chan struct{})
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			// Unblock pending reads and writes.
			p.conn.SetDeadline(time.Unix(1, 0))
		case <-stop:
		}
	}()

	return budget, func() {
		close(stop)
		wg.Wait()
		p.conn.SetDeadline(time.Time{})
	}
}

func describe(ctx context.Context, budget time.Duration) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "canceled"
	}
	if budget > 0 {
		return fmt.Sprintf("budget %s", budget)
	}
	return "no budget"
}
