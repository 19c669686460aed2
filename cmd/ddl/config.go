package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/canonical/go-ddl"
	"github.com/canonical/go-ddl/client"
)

// Build the log function configured by --log-level.
func logFunc(prefix string) (client.LogFunc, error) {
	level, err := client.NewLogLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	return client.NewLogFunc(level, prefix, os.Stderr), nil
}

// Build the TLS configuration given by --cert, --key and --ca, or nil if
// TLS is not enabled.
func tlsConfig() (*tls.Config, error) {
	cert, key, ca := viper.GetString("cert"), viper.GetString("key"), viper.GetString("ca")
	if (cert != "" && key == "") || (key != "" && cert == "") {
		return nil, errors.New("both TLS certificate and key must be given")
	}
	if cert == "" && ca == "" {
		return nil, nil
	}
	return client.LoadTLSConfig(cert, key, ca)
}

// Open the database configured by --schema and --classes.
func openDatabase(ctx context.Context, log client.LogFunc, options ...ddl.Option) (*ddl.Database, error) {
	options = append([]ddl.Option{ddl.WithLogFunc(log)}, options...)
	if path := viper.GetString("schema"); path != "" {
		options = append(options, ddl.WithYamlFile(path))
	}

	classes, err := parseClasses(viper.GetString("classes"))
	if err != nil {
		return nil, err
	}

	db, err := ddl.New(ctx, options...)
	if err != nil {
		return nil, err
	}

	for _, c := range classes {
		if _, err := db.Properties(c.name); err == nil {
			continue
		}
		if err := db.CreateClass(ctx, c.name, c.clusters...); err != nil {
			return nil, errors.Wrapf(err, "create class %s", c.name)
		}
	}

	return db, nil
}

type classFlag struct {
	name     string
	clusters []int16
}

// Parse a list of class definitions of the form "Person=3,7;Company=9".
func parseClasses(value string) ([]classFlag, error) {
	var classes []classFlag
	for _, def := range strings.Split(value, ";") {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}
		name, ids, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("class %q: expected <name>=<cluster>,...", def)
		}
		clusters, err := parseClusters(strings.Split(ids, ","))
		if err != nil {
			return nil, errors.Wrapf(err, "class %s", name)
		}
		classes = append(classes, classFlag{name: name, clusters: clusters})
	}
	return classes, nil
}

func parseClusters(values []string) ([]int16, error) {
	clusters := make([]int16, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 16)
		if err != nil {
			return nil, errors.Errorf("invalid cluster id %q", value)
		}
		clusters = append(clusters, int16(id))
	}
	return clusters, nil
}
