// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the typedapi command.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/z5labs/typedapi/config"
)

// DefaultConfigFile is read when --config is not given. It may be absent.
const DefaultConfigFile = "typedapi.yaml"

// Execute runs the typedapi command with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "typedapi",
		Short:         "Generate typed Go clients for typedapi servers",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, err := cmd.Flags().GetString("env-file")
			if err != nil {
				return err
			}
			return config.LoadDotEnv(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (defaults to "+DefaultConfigFile+" when present)")
	cmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before reading config")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	gen := newGenCmd()
	gen.SetFlagErrorFunc(flagError)
	cmd.AddCommand(gen)

	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
