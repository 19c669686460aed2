package protocol

import (
	"math"

	"github.com/pkg/errors"
)

// Request codes.
const (
	RequestDataClusterCount = 12
)

// Response statuses.
const (
	ResponseOK    = 0
	ResponseError = 1
)

// Maximum size of an error message carried by an error response.
const maxErrorSize = 64 * 1024

// Request is a typed message that can be sent over a session.
type Request interface {
	// Command returns the code the receiver uses to select the decoder.
	Command() uint8

	// Encode writes the request payload into the message body.
	Encode(m *Message) error
}

// CountRequest asks for the number of records held by a set of clusters.
type CountRequest struct {
	ClusterIDs []int16
	Tombstones bool // Include tombstoned records
}

// Command implements Request.
func (r CountRequest) Command() uint8 {
	return RequestDataClusterCount
}

// Encode implements Request. The payload is the number of cluster IDs, each
// cluster ID, then the tombstones flag.
func (r CountRequest) Encode(m *Message) error {
	if len(r.ClusterIDs) > math.MaxInt16 {
		return errors.Errorf("too many clusters: %d", len(r.ClusterIDs))
	}
	m.PutInt16(int16(len(r.ClusterIDs)))
	for _, id := range r.ClusterIDs {
		m.PutInt16(id)
	}
	m.PutBool(r.Tombstones)
	return nil
}

// EncodeRequest resets m and fills it with the given request, bound to the
// given session.
func EncodeRequest(m *Message, session int32, r Request) error {
	m.Reset()
	m.putHeader(r.Command(), session)
	return r.Encode(m)
}

// DecodeCountRequest reads the payload of a count request.
func DecodeCountRequest(d *Decoder) (CountRequest, error) {
	n := d.Int16()
	if d.Err() == nil && n < 0 {
		return CountRequest{}, errors.Errorf("negative cluster count %d", n)
	}
	r := CountRequest{ClusterIDs: make([]int16, 0, n)}
	for i := int16(0); i < n && d.Err() == nil; i++ {
		r.ClusterIDs = append(r.ClusterIDs, d.Int16())
	}
	r.Tombstones = d.Bool()
	if err := d.Err(); err != nil {
		return CountRequest{}, errors.Wrap(err, "decode count request")
	}
	return r, nil
}

// EncodeCount fills m with a successful count response.
func EncodeCount(m *Message, session int32, count int64) {
	m.Reset()
	m.putHeader(ResponseOK, session)
	m.PutInt64(count)
}

// DecodeCount reads the payload of a count response.
func DecodeCount(d *Decoder) (int64, error) {
	count := d.Int64()
	if err := d.Err(); err != nil {
		return 0, errors.Wrap(err, "decode count response")
	}
	return count, nil
}

// EncodeFailure fills m with an error response carrying the given message.
func EncodeFailure(m *Message, session int32, message string) {
	if len(message) > maxErrorSize {
		message = message[:maxErrorSize]
	}
	m.Reset()
	m.putHeader(ResponseError, session)
	m.PutString(message)
}

// ErrRequest is returned when the server answers a request with an error
// response.
type ErrRequest struct {
	Message string
}

func (e ErrRequest) Error() string {
	return e.Message
}

func requestDesc(code uint8) string {
	switch code {
	case RequestDataClusterCount:
		return "cluster count"
	}
	return "unknown"
}
