package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pretorin-ai/govbizops/internal/config"
	govlog "github.com/pretorin-ai/govbizops/internal/log"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run collection cycles on a fixed interval",
		Long: `Schedule runs collection cycles repeatedly: one cycle immediately,
then one per interval until interrupted.

The interval has a floor of 24 hours. The compliance ceilings (daily
call quota, narrow windows) are designed around at most one collection
per day; a shorter interval would only burn quota on windows that were
already collected.

Examples:
  # Collect once a day
  govbizops schedule

  # Collect every other day with a wider window
  govbizops schedule --interval 48h --days 3`,
		Args: cobra.NoArgs,
		RunE: runScheduleCmd,
	}

	addCollectFlags(cmd)
	cmd.Flags().DurationP("interval", "i", config.MinScheduleInterval,
		"Interval between collection cycles (minimum 24h)")

	return cmd
}

// runScheduleCmd executes the schedule command.
func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("interval") {
		cfg.ScheduleInterval, err = cmd.Flags().GetDuration("interval")
		if err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := govlog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	if cfg.ScheduleInterval < config.MinScheduleInterval {
		logger.Warn("schedule interval raised to the minimum",
			"requested", cfg.ScheduleInterval,
			"minimum", config.MinScheduleInterval,
		)
		cfg.ScheduleInterval = config.MinScheduleInterval
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runSchedule(ctx, cmd, cfg, logger)
}

// runSchedule loops collection cycles until the context is cancelled.
// A failed cycle is logged and the schedule keeps going; transient
// upstream trouble should not take the collector down for good.
func runSchedule(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("scheduler started",
		"interval", cfg.ScheduleInterval,
		"lookbackDays", cfg.LookbackDays,
	)

	ticker := time.NewTicker(cfg.ScheduleInterval)
	defer ticker.Stop()

	for {
		result, err := runCycle(ctx, cfg, logger)
		if err != nil {
			logger.Error("collection cycle failed", "error", err)
		} else if result != nil {
			printCycleSummary(cmd, result.Stats)
		}

		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
