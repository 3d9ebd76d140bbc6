// Package dispatch fans the per-cycle delta out to the downstream
// collaborators (webhook notifier, CRM import). Collaborators run
// concurrently and their failures are logged, never propagated: a dead
// webhook must not stop collection.
package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pretorin-ai/govbizops/internal/model"
)

// DeliverFunc delivers the cycle outcome to one collaborator.
type DeliverFunc func(ctx context.Context, stats model.CycleStats, newRecords []model.Opportunity) error

// Target is one named collaborator endpoint.
type Target struct {
	// Name identifies the collaborator in logs.
	Name string

	// Deliver pushes the delta to the collaborator.
	Deliver DeliverFunc
}

// Dispatcher pushes cycle outcomes to a fixed set of targets.
type Dispatcher struct {
	targets []Target
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given targets.
func NewDispatcher(logger *slog.Logger, targets ...Target) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		targets: targets,
		logger:  logger,
	}
}

// Dispatch delivers the cycle outcome to every target concurrently and
// waits for all of them. It returns how many deliveries failed; the
// failures themselves are logged per target and never returned, so one
// broken collaborator cannot affect the others or the pipeline.
func (d *Dispatcher) Dispatch(ctx context.Context, stats model.CycleStats, newRecords []model.Opportunity) int {
	var failed atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	for _, target := range d.targets {
		target := target
		g.Go(func() error {
			if err := target.Deliver(ctx, stats, newRecords); err != nil {
				failed.Add(1)
				d.logger.Warn("collaborator delivery failed",
					"target", target.Name,
					"cycleId", stats.CycleID,
					"error", err,
				)
				// Don't return the error to errgroup - the other
				// deliveries must keep running.
				return nil
			}
			d.logger.Debug("collaborator delivery finished",
				"target", target.Name,
				"cycleId", stats.CycleID,
				"records", len(newRecords),
			)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	return int(failed.Load())
}
