// Package config composes a run's settings from command-line flags, the
// contract file, the environment, and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"layercheck/internal/contract"
	"layercheck/internal/scan"
)

// DefaultFile is looked up under the root when no config path is given.
const DefaultFile = ".layercheck.yaml"

// DefaultTimeout bounds a scan when no timeout is given.
const DefaultTimeout = 5 * time.Minute

// EnvMaxWorkers bounds parse parallelism when no worker count is given.
const EnvMaxWorkers = "MAX_WORKERS"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options are explicit settings, typically from flags. Zero values are unset.
type Options struct {
	Root           string
	ConfigPath     string
	Include        []string
	Exclude        []string
	Workers        int
	Timeout        time.Duration
	FollowSymlinks bool
	CachePath      string
	Format         string
	Verbose        bool

	// ContractsOptional lets a run proceed without a contract file when
	// none was named and the default one does not exist.
	ContractsOptional bool
}

// Output controls rendering.
type Output struct {
	Format  string
	Verbose bool
}

// Config is everything a run needs.
type Config struct {
	ConfigPath string
	Scan       scan.Options
	CachePath  string
	Contracts  []contract.Contract
	File       *contract.File
	Output     Output
}

// Resolve loads the contract file and merges it with opts and the
// environment. getenv is os.Getenv outside tests.
func Resolve(opts Options, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(root, DefaultFile)
	}

	file, err := contract.Load(cfgPath)
	switch {
	case err == nil:
	case opts.ContractsOptional && opts.ConfigPath == "" && errors.Is(err, fs.ErrNotExist):
		file, cfgPath = &contract.File{}, ""
	default:
		return nil, err
	}

	var contracts []contract.Contract
	if len(file.Contracts) > 0 || !opts.ContractsOptional {
		contracts, err = file.Build()
		if err != nil {
			var ce *contract.ConfigError
			if errors.As(err, &ce) && ce.Path == "" {
				err = fmt.Errorf("%s: %w", cfgPath, err)
			}
			return nil, err
		}
	}

	if opts.Root == "" && file.Root != "" && cfgPath != "" {
		root = file.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(filepath.Dir(cfgPath), root)
		}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	workers := opts.Workers
	if workers <= 0 {
		if v := getenv(EnvMaxWorkers); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, &contract.ConfigError{Msg: fmt.Sprintf("%s must be a positive integer, got %q", EnvMaxWorkers, v)}
			}
			workers = n
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	format := opts.Format
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON:
	default:
		return nil, &contract.ConfigError{Msg: fmt.Sprintf("format must be %q or %q, got %q", FormatText, FormatJSON, format)}
	}

	include, exclude := file.Include, file.Exclude
	if len(opts.Include) > 0 {
		include = opts.Include
	}
	if len(opts.Exclude) > 0 {
		exclude = opts.Exclude
	}

	return &Config{
		ConfigPath: cfgPath,
		Scan: scan.Options{
			Root:           root,
			Include:        include,
			Exclude:        exclude,
			Workers:        workers,
			Timeout:        timeout,
			FollowSymlinks: opts.FollowSymlinks,
		},
		CachePath: opts.CachePath,
		Contracts: contracts,
		File:      file,
		Output:    Output{Format: format, Verbose: opts.Verbose},
	}, nil
}
