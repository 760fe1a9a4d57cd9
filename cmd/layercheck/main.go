package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"layercheck/internal/config"
)

const version = "0.3.0"

// errContractsBroken marks a run that completed with violations. It maps to
// exit status 1; every other error is fatal and maps to 2.
var errContractsBroken = errors.New("contracts broken")

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "layercheck",
		Short: "Check import boundaries between the layers of a code base",
		Long: `layercheck builds the module import graph of a source tree and checks it
against declared contracts:

  forbidden  modules matching source_modules must not import, directly or
             transitively, modules matching destination_modules
  layers     a lower layer must never import a higher one

Exit status is 0 when every contract holds, 1 when any contract is broken,
and 2 on a fatal configuration or scan error.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(
		newCheckCmd(),
		newGraphCmd(),
		newInitCmd(),
		newWatchCmd(),
		newMCPCmd(),
	)
	return root
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errContractsBroken):
		return 1
	default:
		fmt.Fprintf(stderr, "layercheck: %v\n", err)
		return 2
	}
}

// ---------------------------------------------------------------------------
// Shared flags
// ---------------------------------------------------------------------------

// scanFlags are the flags of every command that scans a tree.
type scanFlags struct {
	opts    config.Options
	timeout time.Duration
}

func (f *scanFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.opts.Root, "root", "r", "", "root directory of the source tree (default: current directory)")
	fl.StringVarP(&f.opts.ConfigPath, "config", "c", "", "contract file (default: <root>/"+config.DefaultFile+")")
	fl.StringSliceVar(&f.opts.Include, "include", nil, "only scan paths matching these globs")
	fl.StringSliceVar(&f.opts.Exclude, "exclude", nil, "skip paths matching these globs")
	fl.IntVarP(&f.opts.Workers, "workers", "w", 0, "parallel parsers (default: $"+config.EnvMaxWorkers+" or number of CPUs)")
	fl.StringVar(&f.opts.CachePath, "cache", "", "SQLite file caching parsed imports between runs")
	fl.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, "upper bound on scan time")
	fl.BoolVar(&f.opts.FollowSymlinks, "follow-symlinks", false, "descend into symlinked directories")
	fl.BoolVarP(&f.opts.Verbose, "verbose", "v", false, "debug logging on stderr")
}

func (f *scanFlags) resolve() (*config.Config, error) {
	opts := f.opts
	opts.Timeout = f.timeout
	return config.Resolve(opts, os.Getenv)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// splitList splits a comma separated flag or answer, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
