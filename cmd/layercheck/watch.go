package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"layercheck/internal/checker"
	"layercheck/internal/config"
	"layercheck/internal/extract"
	"layercheck/internal/logging"
	"layercheck/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var f scanFlags
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the check whenever source files change",
		Long: `Run the check, then run it again after every burst of changes to source
files or to the contract file. Each run scans a fresh graph. Stops on
interrupt. Errors in later runs are printed and watching continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Output.Verbose, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			reg, err := extract.DefaultRegistry(cfg.Scan.Root)
			if err != nil {
				return err
			}
			cfgAbs, _ := filepath.Abs(cfg.ConfigPath)

			w := watch.New(cfg.Scan.Root, logger.Named("watch"))
			w.Debounce = debounce
			w.Match = func(path string) bool {
				return path == cfgAbs || reg.For(path) != nil
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			return w.Run(cmd.Context(), func(ctx context.Context) error {
				// Reload so contract edits apply to the next run.
				cfg, err := f.resolve()
				if err != nil {
					fmt.Fprintf(errOut, "layercheck: %v\n", err)
					return nil
				}
				r, err := checker.New(cfg, logger).Check(ctx)
				if err != nil {
					fmt.Fprintf(errOut, "layercheck: %v\n", err)
					return nil
				}
				fmt.Fprintf(out, "\n--- %s ---\n", time.Now().Format(time.TimeOnly))
				if err := render(out, r, cfg.Output.Format); err != nil {
					logger.Warn("rendering report", zap.Error(err))
				}
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&f.opts.Format, "format", "f", config.FormatText, "output format: text or json")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-running")
	return cmd
}
