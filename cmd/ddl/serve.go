package main

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canonical/go-ddl"
	"github.com/canonical/go-ddl/client"
)

func newServe() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve cluster record counts",
		Args:    cobra.NoArgs,
		PreRunE: processConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			log, err := logFunc("ddl: ")
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			db, err := openDatabase(ctx, log,
				ddl.WithRegisterer(registry),
				ddl.WithReplicationTimeout(viper.GetDuration("replication-timeout")),
			)
			if err != nil {
				return err
			}

			listener, err := listen(viper.GetString("listen"))
			if err != nil {
				return err
			}
			config, err := tlsConfig()
			if err != nil {
				listener.Close()
				return err
			}
			if config != nil {
				if len(config.Certificates) == 0 {
					listener.Close()
					return errors.New("serving TLS requires a certificate")
				}
				if config.ClientCAs != nil {
					config.ClientAuth = tls.RequireAndVerifyClientCert
				}
				listener = tls.NewListener(listener, config)
			}

			server := ddl.NewServer(db, ddl.WithServerLogFunc(log))
			if err := server.Start(listener); err != nil {
				listener.Close()
				return err
			}
			defer server.Close()
			log(client.LogInfo, "listening on %s", listener.Addr())

			if address := viper.GetString("metrics"); address != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
				metrics := &http.Server{Addr: address, Handler: mux}
				go func() {
					if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log(client.LogError, "metrics: %v", err)
					}
				}()
				defer metrics.Close()
			}

			ch := make(chan os.Signal, 1)
			signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
			<-ch
			log(client.LogInfo, "shutting down")

			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("listen", "127.0.0.1:9500", "address to listen on, a path or @name for a unix socket")
	flags.String("metrics", "", "address to serve Prometheus metrics on, disabled if empty")
	flags.String("schema", "", "YAML file the schema is loaded from and saved to")
	flags.String("classes", "", "classes to create if missing, e.g. \"Person=3,7;Company=9\"")
	flags.Duration("replication-timeout", ddl.DefaultReplicationTimeout, "how long to wait for replica acknowledgments")

	return cmd
}

func listen(address string) (net.Listener, error) {
	network := "tcp"
	if strings.HasPrefix(address, "@") || strings.HasPrefix(address, "/") {
		network = "unix"
	}
	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", address)
	}
	return listener, nil
}
