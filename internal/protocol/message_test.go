package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Put(t *testing.T) {
	m := Message{}
	m.Init(2)

	m.PutInt8(-1)
	m.PutBool(true)
	m.PutInt16(0x0102)
	m.PutInt32(0x03040506)
	m.PutInt64(-2)
	m.PutString("hi")

	assert.Equal(t, []byte{
		0xff,
		0x01,
		0x01, 0x02,
		0x03, 0x04, 0x05, 0x06,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
		0x00, 0x00, 0x00, 0x02, 'h', 'i',
	}, m.Body())
}

func TestMessage_Bytes(t *testing.T) {
	m := Message{}
	m.Init(8)
	m.putHeader(RequestDataClusterCount, 258)
	m.PutInt8(7)

	assert.Equal(t, []byte{RequestDataClusterCount, 0x00, 0x00, 0x01, 0x02, 0x07}, m.Bytes())
}

func TestMessage_Reset(t *testing.T) {
	m := Message{}
	m.Init(8)
	m.putHeader(ResponseError, 3)
	m.PutInt32(1)

	m.Reset()

	assert.Equal(t, uint8(0), m.Type())
	assert.Equal(t, int32(0), m.Session())
	assert.Empty(t, m.Body())
}

func TestDecoder(t *testing.T) {
	m := Message{}
	m.PutInt8(5)
	m.PutInt16(-3)
	m.PutInt32(70000)
	m.PutInt64(1 << 40)
	m.PutString("hello")
	m.PutBool(false)

	d := NewDecoder(bytes.NewReader(m.Body()))

	assert.Equal(t, int8(5), d.Int8())
	assert.Equal(t, int16(-3), d.Int16())
	assert.Equal(t, int32(70000), d.Int32())
	assert.Equal(t, int64(1<<40), d.Int64())
	assert.Equal(t, "hello", d.String(16))
	assert.False(t, d.Bool())
	require.NoError(t, d.Err())
}

// Once a read fails, the error sticks.
func TestDecoder_ShortRead(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte{0x00}))

	assert.Equal(t, int16(0), d.Int16())
	assert.Equal(t, int8(0), d.Int8())
	assert.EqualError(t, d.Err(), "unexpected EOF")
}

func TestDecoder_StringTooLong(t *testing.T) {
	m := Message{}
	m.PutString("hello")

	d := NewDecoder(bytes.NewReader(m.Body()))

	assert.Equal(t, "", d.String(4))
	assert.EqualError(t, d.Err(), "string length 5 out of range")
}
