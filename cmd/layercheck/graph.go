package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"layercheck/internal/checker"
	"layercheck/internal/logging"
	"layercheck/internal/report"
)

func newGraphCmd() *cobra.Command {
	var f scanFlags
	var format string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the module import graph and its cycles",
		Long: `Scan the tree and print its module import graph as Mermaid, Graphviz DOT,
or JSON, followed by any import cycles and the most imported modules.

A contract file is optional: when present its include and exclude globs and
root apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(report.GraphFormats, format) {
				return fmt.Errorf("unknown graph format %q (want one of %s)", format, strings.Join(report.GraphFormats, ", "))
			}
			f.opts.ContractsOptional = true
			cfg, err := f.resolve()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Output.Verbose, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			sr, err := checker.New(cfg, logger).Scan(cmd.Context())
			if err != nil {
				return err
			}
			return report.WriteGraph(cmd.OutOrStdout(), sr.Graph, format)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatMermaid, "output format: "+strings.Join(report.GraphFormats, ", "))
	return cmd
}
