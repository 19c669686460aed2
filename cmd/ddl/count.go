package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canonical/go-ddl/client"
)

const defaultTimeout = 10 * time.Second

func newCount() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "count <cluster>...",
		Short:   "Count the records of clusters on a running server",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: processConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			clusters, err := parseClusters(args)
			if err != nil {
				return err
			}

			log, err := logFunc("ddl: ")
			if err != nil {
				return err
			}

			options := []client.Option{
				client.WithLogFunc(log),
				client.WithDialTimeout(viper.GetDuration("timeout")),
			}
			config, err := tlsConfig()
			if err != nil {
				return err
			}
			if config != nil {
				options = append(options, client.WithDialFunc(client.DialFuncWithTLS(client.DefaultDialFunc, config)))
			}

			ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
			defer cancel()

			c, err := client.Connect(ctx, viper.GetStringSlice("servers"), options...)
			if err != nil {
				return err
			}
			defer c.Close()

			count, err := c.Count(ctx, clusters, viper.GetBool("tombstones"))
			if err != nil {
				return err
			}
			fmt.Println(count)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("servers", "s", []string{"127.0.0.1:9500"}, "comma-separated list of servers to try")
	flags.Bool("tombstones", false, "include tombstoned records")
	flags.Duration("timeout", defaultTimeout, "overall timeout")

	return cmd
}
