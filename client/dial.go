package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/canonical/go-ddl/internal/protocol"
)

// DefaultDialFunc is the default dial function, which can handle plain TCP and
// Unix socket endpoints. You can customize it with WithDialFunc()
func DefaultDialFunc(ctx context.Context, address string) (net.Conn, error) {
	return protocol.Dial(ctx, address)
}

// DialFuncWithTLS returns a dial function that uses TLS encryption.
//
// The given dial function will be used to establish the network connection,
// and the given TLS config will be used for encryption. If the config has no
// server name, the host part of TCP addresses is used.
func DialFuncWithTLS(dial DialFunc, config *tls.Config) DialFunc {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		clonedConfig := config.Clone()
		if len(clonedConfig.ServerName) == 0 && !isUnixAddress(addr) {
			remoteIP, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			clonedConfig.ServerName = remoteIP
		}
		conn, err := dial(ctx, addr)
		if err != nil {
			return nil, err
		}
		return tls.Client(conn, clonedConfig), nil
	}
}

// LoadTLSConfig builds a TLS configuration from PEM files. The key pair is
// optional for clients, the CA bundle is optional when the system pool
// should be used.
func LoadTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	config := &tls.Config{MinVersion: tls.VersionTLS12}

	if certFile != "" || keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load key pair")
		}
		config.Certificates = []tls.Certificate{cert}
	}

	if caFile != "" {
		data, err := os.ReadFile(caFile)
		if err != nil {
			return nil, errors.Wrap(err, "read CA bundle")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			return nil, errors.Errorf("no certificate found in %s", caFile)
		}
		config.RootCAs = pool
		config.ClientCAs = pool
	}

	return config, nil
}

func isUnixAddress(addr string) bool {
	return strings.HasPrefix(addr, "@") || strings.HasPrefix(addr, "/")
}
