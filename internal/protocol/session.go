package protocol

import (
	"context"
)

// Session is a conversation with a server over a protocol connection.
// Requests sent through a session carry its ID in their header.
type Session struct {
	id       int32
	protocol *Protocol
}

// NewSession binds a session ID to a connection.
func NewSession(id int32, protocol *Protocol) *Session {
	return &Session{id: id, protocol: protocol}
}

// ID returns the identifier assigned by the server.
func (s *Session) ID() int32 {
	return s.id
}

// Protocol returns the connection the session is bound to.
func (s *Session) Protocol() *Protocol {
	return s.protocol
}

// Send writes the request to the session connection, without reading any
// response. Concurrent sends on sessions sharing a connection never
// interleave.
func (s *Session) Send(ctx context.Context, r Request) error {
	m := Message{}
	m.Init(64)
	if err := EncodeRequest(&m, s.id, r); err != nil {
		return err
	}
	return s.protocol.Send(ctx, &m)
}

// Call writes the request and decodes the response payload with decode.
func (s *Session) Call(ctx context.Context, r Request, decode func(*Decoder) error) error {
	m := Message{}
	m.Init(64)
	if err := EncodeRequest(&m, s.id, r); err != nil {
		return err
	}
	return s.protocol.Call(ctx, &m, decode)
}

// Close the session connection.
func (s *Session) Close() error {
	return s.protocol.Close()
}
