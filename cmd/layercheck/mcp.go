package main

import (
	"github.com/spf13/cobra"

	"layercheck/internal/logging"
	"layercheck/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve check_architecture and module_graph as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.New(verbose, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()
			return mcpserver.Serve(version, logger)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	return cmd
}
