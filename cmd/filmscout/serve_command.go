package main

import (
	"github.com/spf13/cobra"

	"filmscout/internal/daemon"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var stdio bool
	var development bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tool server (HTTP, or MCP over stdio with --stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemon.Run(cmd.Context(), cfg, daemon.Options{
				LogLevel:    ctx.logLevel(""),
				Development: development,
				Stdio:       stdio,
			})
		},
	}
	cmd.Flags().BoolVar(&stdio, "stdio", false, "Serve MCP on stdin/stdout for a host that spawns filmscout")
	cmd.Flags().BoolVar(&development, "development", false, "Include source locations in log output")
	return cmd
}
