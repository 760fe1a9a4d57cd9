package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"layercheck/internal/checker"
	"layercheck/internal/config"
	"layercheck/internal/logging"
	"layercheck/internal/report"
)

func newCheckCmd() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Scan the tree and check every contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Output.Verbose, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			r, err := checker.New(cfg, logger).Check(cmd.Context())
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), r, cfg.Output.Format); err != nil {
				return err
			}
			if r.Status != report.StatusPass {
				return errContractsBroken
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&f.opts.Format, "format", "f", config.FormatText, "output format: text or json")
	return cmd
}

func render(w io.Writer, r *report.Report, format string) error {
	switch format {
	case config.FormatJSON:
		return report.WriteJSON(w, r)
	case config.FormatText, "":
		return report.WriteText(w, r)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
