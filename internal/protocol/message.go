package protocol

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Size of the message header in bytes: a command code (requests) or a
// status (responses), followed by the session ID.
const messageHeaderSize = 1 + 4

// Message holds an outgoing request or response. All multi-byte values are
// big-endian.
type Message struct {
	mtype   uint8  // Command code or response status
	session int32  // Session the message belongs to
	body    buffer // Message payload
}

type buffer struct {
	Bytes  []byte
	Offset int
}

// Init initializes the message using the given initial size for the body
// buffer. It grows as needed.
func (m *Message) Init(initialBufferSize int) {
	if initialBufferSize < 0 {
		panic("initial buffer size must not be negative")
	}
	m.body.Bytes = make([]byte, initialBufferSize)
	m.Reset()
}

// Reset the state of the message so it can be used to encode a new one.
func (m *Message) Reset() {
	m.mtype = 0
	m.session = 0
	m.body.Offset = 0
}

// Type returns the command code or response status of the message.
func (m *Message) Type() uint8 {
	return m.mtype
}

// Session returns the session ID of the message.
func (m *Message) Session() int32 {
	return m.session
}

// Body returns the encoded payload.
func (m *Message) Body() []byte {
	return m.body.Bytes[:m.body.Offset]
}

// Bytes returns the header followed by the payload, as written on the
// wire.
func (m *Message) Bytes() []byte {
	data := make([]byte, messageHeaderSize+m.body.Offset)
	data[0] = m.mtype
	binary.BigEndian.PutUint32(data[1:], uint32(m.session))
	copy(data[messageHeaderSize:], m.Body())
	return data
}

func (m *Message) putHeader(mtype uint8, session int32) {
	m.mtype = mtype
	m.session = session
}

// PutInt8 appends a single byte to the body.
func (m *Message) PutInt8(v int8) {
	m.grow(1)[0] = byte(v)
}

// PutBool appends a boolean to the body, as a 1 or 0 byte.
func (m *Message) PutBool(v bool) {
	if v {
		m.PutInt8(1)
	} else {
		m.PutInt8(0)
	}
}

// PutInt16 appends a 16-bit signed integer to the body.
func (m *Message) PutInt16(v int16) {
	binary.BigEndian.PutUint16(m.grow(2), uint16(v))
}

// PutInt32 appends a 32-bit signed integer to the body.
func (m *Message) PutInt32(v int32) {
	binary.BigEndian.PutUint32(m.grow(4), uint32(v))
}

// PutInt64 appends a 64-bit signed integer to the body.
func (m *Message) PutInt64(v int64) {
	binary.BigEndian.PutUint64(m.grow(8), uint64(v))
}

// PutString appends a string to the body, prefixed by its length as a
// 32-bit integer.
func (m *Message) PutString(s string) {
	if len(s) > math.MaxInt32 {
		panic("string too long")
	}
	m.PutInt32(int32(len(s)))
	copy(m.grow(len(s)), s)
}

// Reserve n bytes at the end of the body and return them.
func (m *Message) grow(n int) []byte {
	for m.body.Offset+n > len(m.body.Bytes) {
		size := len(m.body.Bytes) * 2
		if size == 0 {
			size = 64
		}
		bytes := make([]byte, size)
		copy(bytes, m.body.Bytes[:m.body.Offset])
		m.body.Bytes = bytes
	}
	b := m.body.Bytes[m.body.Offset : m.body.Offset+n]
	m.body.Offset += n
	return b
}

// Decoder reads big-endian values from an incoming stream. The first error
// is sticky: once a read fails, all following reads return zero values and
// Err reports the failure.
type Decoder struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br}
}

// Err returns the first error hit while reading, if any.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) read(n int) []byte {
	if d.err != nil {
		return nil
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		d.err = err
		return nil
	}
	return d.buf[:n]
}

// Int8 reads a single byte.
func (d *Decoder) Int8() int8 {
	b := d.read(1)
	if b == nil {
		return 0
	}
	return int8(b[0])
}

// Bool reads a boolean byte. Any non-zero value is true.
func (d *Decoder) Bool() bool {
	return d.Int8() != 0
}

// Int16 reads a 16-bit signed integer.
func (d *Decoder) Int16() int16 {
	b := d.read(2)
	if b == nil {
		return 0
	}
	return int16(binary.BigEndian.Uint16(b))
}

// Int32 reads a 32-bit signed integer.
func (d *Decoder) Int32() int32 {
	b := d.read(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

// Int64 reads a 64-bit signed integer.
func (d *Decoder) Int64() int64 {
	b := d.read(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

// String reads a length-prefixed string of at most max bytes.
func (d *Decoder) String(max int) string {
	n := d.Int32()
	if d.err != nil {
		return ""
	}
	if n < 0 || int(n) > max {
		d.err = errors.Errorf("string length %d out of range", n)
		return ""
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(d.r, data); err != nil {
		d.err = err
		return ""
	}
	return string(data)
}

// Header reads a message header, returning the message type and session.
func (d *Decoder) Header() (uint8, int32) {
	mtype := uint8(d.Int8())
	session := d.Int32()
	return mtype, session
}
