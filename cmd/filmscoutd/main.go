// Command filmscoutd runs the filmscout tool server. By default it serves the
// HTTP tool endpoints and MCP over streamable HTTP; --stdio serves MCP on
// stdin/stdout for hosts that spawn one process per session.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"filmscout/internal/config"
	"filmscout/internal/daemon"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var opts daemon.Options

	cmd := &cobra.Command{
		Use:           "filmscoutd",
		Short:         "Serve the filmscout catalog tools",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			return daemon.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&opts.Stdio, "stdio", false, "Serve MCP on stdin/stdout instead of HTTP")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&opts.Development, "development", false, "Include source locations in log output")
	return cmd
}
