package main

import (
	"context"
	"fmt"
	"io"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canonical/go-ddl/internal/shell"
)

func newShell() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shell",
		Short:   "Interactive prompt for schema statements",
		Args:    cobra.NoArgs,
		PreRunE: processConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			log, err := logFunc("ddl: ")
			if err != nil {
				return err
			}

			db, err := openDatabase(ctx, log)
			if err != nil {
				return err
			}

			sh, err := shell.New(db, shell.WithFormat(viper.GetString("format")))
			if err != nil {
				return err
			}

			line := liner.NewLiner()
			defer line.Close()

			for {
				input, err := line.Prompt("ddl> ")
				if err != nil {
					if err == io.EOF || err == liner.ErrPromptAborted {
						break
					}
					return err
				}
				line.AppendHistory(input)

				result, err := sh.Process(ctx, input)
				if err != nil {
					fmt.Println("Error: ", err)
				} else if result != "" {
					fmt.Println(result)
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("schema", "", "YAML file the schema is loaded from and saved to")
	flags.String("classes", "", "classes to create if missing, e.g. \"Person=3,7;Company=9\"")
	flags.String("format", "tabular", "output format of .describe: tabular, json or yaml")

	return cmd
}
