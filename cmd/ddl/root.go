package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Return a new root command.
func newRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Class schema statements and record counts",
		Long: `Run schema statements against a class schema, serve cluster record
counts over the network, or query a running server.

Every flag can also be set through an environment variable named after it,
e.g. DDL_LOG_LEVEL for --log-level.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(initConfig)

	flags := cmd.PersistentFlags()
	flags.String("log-level", "warn", "minimum level of log messages: debug, info, warn or error")
	flags.String("cert", "", "public TLS certificate")
	flags.String("key", "", "private TLS key")
	flags.String("ca", "", "TLS certificate authority bundle")

	cmd.AddCommand(newShell())
	cmd.AddCommand(newServe())
	cmd.AddCommand(newCount())

	return cmd
}

// Read configuration from DDL_* environment variables.
func initConfig() {
	viper.SetEnvPrefix("ddl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Bind the flags of the command being run, so that viper lookups see their
// values, falling back to the environment.
func processConfig(cmd *cobra.Command, args []string) error {
	return viper.BindPFlags(cmd.Flags())
}
