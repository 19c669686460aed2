package client_test

import (
	"context"
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddl "github.com/canonical/go-ddl"
	"github.com/canonical/go-ddl/client"
	"github.com/canonical/go-ddl/logging"
)

func TestClient_Count(t *testing.T) {
	address, cleanup := newServer(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cli, err := client.New(ctx, address, client.WithLogFunc(logging.Test(t)))
	require.NoError(t, err)
	defer cli.Close()

	assert.Equal(t, int32(1), cli.Session())

	count, err := cli.Count(ctx, []int16{3, 7}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(15), count)

	count, err = cli.Count(ctx, []int16{3, 7}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(18), count)
}

func TestClient_CountUnknownCluster(t *testing.T) {
	address, cleanup := newServer(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cli, err := client.New(ctx, address, client.WithLogFunc(logging.Test(t)))
	require.NoError(t, err)
	defer cli.Close()

	_, err = cli.Count(ctx, []int16{3, 99}, false)
	require.Error(t, err)

	failure, ok := errors.Cause(err).(client.ErrRequest)
	require.True(t, ok)
	assert.Equal(t, "cluster 99 not found", failure.Message)

	// The session survives the error response.
	count, err := cli.Count(ctx, []int16{9}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestClient_Connect(t *testing.T) {
	address, cleanup := newServer(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cli, err := client.Connect(ctx, []string{"@ddl-client-test-404", address}, client.WithLogFunc(logging.Test(t)))
	require.NoError(t, err)
	assert.NoError(t, cli.Close())
}

func TestClient_NoServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.New(ctx, "@ddl-client-test-404", client.WithRetryLimit(1), client.WithLogFunc(logging.Test(t)))
	assert.EqualError(t, err, "failed to establish network connection: no available server")
}

func TestDialFuncWithTLS(t *testing.T) {
	var dialed string
	dial := func(ctx context.Context, address string) (net.Conn, error) {
		dialed = address
		conn, _ := net.Pipe()
		return conn, nil
	}

	tlsDial := client.DialFuncWithTLS(dial, &tls.Config{})

	conn, err := tlsDial(context.Background(), "127.0.0.1:9000")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "127.0.0.1:9000", dialed)
	assert.IsType(t, &tls.Conn{}, conn)

	_, err = tlsDial(context.Background(), "no-port")
	assert.Error(t, err)

	conn, err = tlsDial(context.Background(), "@unix-socket")
	require.NoError(t, err)
	conn.Close()
}

func TestLoadTLSConfig_Missing(t *testing.T) {
	config, err := client.LoadTLSConfig("", "", "")
	require.NoError(t, err)
	assert.Empty(t, config.Certificates)

	_, err = client.LoadTLSConfig("", "", "/nonexistent/ca.pem")
	assert.Error(t, err)
}

// Start a server over a database with class Person backed by clusters 3 and
// 7, holding 15 live and 3 tombstoned records, and class Company backed by
// the empty cluster 9.
func newServer(t *testing.T) (string, func()) {
	t.Helper()

	ctx := context.Background()
	db, err := ddl.New(ctx, ddl.WithLogFunc(logging.Test(t)))
	require.NoError(t, err)

	require.NoError(t, db.CreateClass(ctx, "Person", 3, 7))
	require.NoError(t, db.CreateClass(ctx, "Company", 9))
	require.NoError(t, db.AddRecords(3, 10, 1))
	require.NoError(t, db.AddRecords(7, 5, 2))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := ddl.NewServer(db, ddl.WithServerLogFunc(logging.Test(t)))
	require.NoError(t, server.Start(listener))

	cleanup := func() {
		require.NoError(t, server.Close())
	}

	return listener.Addr().String(), cleanup
}
