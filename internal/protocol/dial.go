package protocol

import (
	"context"
	"net"
	"strings"
)

// DialFunc is a function that can be used to establish a network connection.
type DialFunc func(context.Context, string) (net.Conn, error)

// Dial function handling plain TCP and Unix socket endpoints. Addresses
// starting with '@' are abstract Unix sockets.
func Dial(ctx context.Context, address string) (net.Conn, error) {
	family := "tcp"
	if strings.HasPrefix(address, "@") || strings.HasPrefix(address, "/") {
		family = "unix"
	}
	dialer := net.Dialer{}
	return dialer.DialContext(ctx, family, address)
}
