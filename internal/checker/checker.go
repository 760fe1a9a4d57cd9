// Package checker runs the whole pipeline: scan the tree, evaluate the
// contracts, and build the report.
package checker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"layercheck/internal/cache"
	"layercheck/internal/config"
	"layercheck/internal/evaluate"
	"layercheck/internal/extract"
	"layercheck/internal/report"
	"layercheck/internal/scan"
)

// Checker holds a resolved configuration.
type Checker struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New returns a Checker. A nil logger is replaced by a no-op one.
func New(cfg *config.Config, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{cfg: cfg, logger: logger}
}

// Scan builds a fresh module graph. Errors are *scan.ScanError or setup
// failures; both are fatal.
func (c *Checker) Scan(ctx context.Context) (*scan.Result, error) {
	reg, err := extract.DefaultRegistry(c.cfg.Scan.Root)
	if err != nil {
		return nil, &scan.ScanError{Root: c.cfg.Scan.Root, Err: err}
	}
	b := scan.NewBuilder(c.cfg.Scan, reg, c.logger.Named("scan"))

	if c.cfg.CachePath != "" {
		pc, err := cache.Open(c.cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("checker: %w", err)
		}
		defer func() {
			if err := pc.Close(); err != nil {
				c.logger.Warn("closing cache", zap.Error(err))
			}
		}()
		b.WithCache(pc)
	}
	return b.Build(ctx)
}

// Check scans the tree and evaluates every contract.
func (c *Checker) Check(ctx context.Context) (*report.Report, error) {
	sr, err := c.Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range sr.Warnings {
		c.logger.Debug("scan warning", zap.String("warning", w.String()))
	}
	results := evaluate.New(c.logger.Named("evaluate"), c.cfg.Scan.Workers).Run(ctx, sr.Graph, c.cfg.Contracts)
	r := report.Build(sr, results)
	c.logger.Info("check finished",
		zap.String("status", string(r.Status)),
		zap.Int("modules", r.Stats.Modules),
		zap.Int("violations", r.Violations()),
	)
	return r, nil
}
