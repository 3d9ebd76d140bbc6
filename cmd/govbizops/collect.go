package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pretorin-ai/govbizops/internal/collector"
	"github.com/pretorin-ai/govbizops/internal/config"
	"github.com/pretorin-ai/govbizops/internal/crm"
	"github.com/pretorin-ai/govbizops/internal/describe"
	"github.com/pretorin-ai/govbizops/internal/dispatch"
	"github.com/pretorin-ai/govbizops/internal/history"
	govlog "github.com/pretorin-ai/govbizops/internal/log"
	"github.com/pretorin-ai/govbizops/internal/model"
	"github.com/pretorin-ai/govbizops/internal/notify"
	"github.com/pretorin-ai/govbizops/internal/samgov"
	"github.com/pretorin-ai/govbizops/internal/store"
)

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection cycle",
		Long: `Collect runs a single collection cycle: it queries the SAM.gov search
API once per tracked NAICS code over the posted-date window, merges the
results, keeps solicitation-type records not seen before, and persists
them to the local store.

Newly discovered records are announced to the configured webhook and
pushed to the CRM, when either is configured. Failures there never fail
the cycle.

Examples:
  # Collect yesterday's postings for the default codes
  govbizops collect

  # Track different codes over a three-day window
  govbizops collect --codes 236220,541330 --days 3

  # Resolve detail descriptions for newly accepted records
  govbizops collect --describe

  # Use a custom configuration file
  govbizops collect -c myconfig.yaml

Configuration file (.govbizops) example:
  naics_codes:
    - "541511"
    - "541512"
  lookback_days: 2
  type_filter: Solicitation
  crm:
    base_url: https://crm.example.com/api
    api_key: ...`,
		Args: cobra.NoArgs,
		RunE: runCollectCmd,
	}

	addCollectFlags(cmd)
	return cmd
}

// addCollectFlags registers the flags shared by collect and schedule.
func addCollectFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("codes", "n", nil,
		"NAICS codes to track (comma separated)")
	cmd.Flags().IntP("days", "d", config.DefaultLookbackDays,
		"Days back the posted-date window reaches")
	cmd.Flags().StringP("store", "s", "",
		"Opportunity store file path (default: XDG data directory)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .govbizops in current or home directory)")
	cmd.Flags().Bool("alpha", false,
		"Query the SAM.gov alpha environment instead of production")
	cmd.Flags().Bool("describe", false,
		"Resolve detail descriptions for newly accepted records")
	cmd.Flags().Duration("delay", config.DefaultRequestDelay,
		"Fixed delay after every API call")
}

// runCollectCmd executes the collect command.
func runCollectCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := govlog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	result, err := runCycle(ctx, cfg, logger)
	if result != nil {
		printCycleSummary(cmd, result.Stats)
	}
	return err
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from flags, environment, and config file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	// Credentials come from the environment only.
	cfg.APIKey = os.Getenv(config.APIKeyEnv)
	cfg.WebhookURL = os.Getenv(config.WebhookEnv)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Merge the config file in before flags so explicit flags win.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	codes, err := cmd.Flags().GetStringSlice("codes")
	if err != nil {
		return nil, err
	}
	if len(codes) > 0 {
		cfg.NAICSCodes = codes
	}

	if cmd.Flags().Changed("days") {
		cfg.LookbackDays, err = cmd.Flags().GetInt("days")
		if err != nil {
			return nil, err
		}
	}

	storePath, err := cmd.Flags().GetString("store")
	if err != nil {
		return nil, err
	}
	if storePath != "" {
		cfg.StoragePath = storePath
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = config.DefaultStoragePath()
	}
	if cfg.HistoryDBDir == "" {
		cfg.HistoryDBDir = config.XDGDataDir()
	}

	alpha, err := cmd.Flags().GetBool("alpha")
	if err != nil {
		return nil, err
	}
	if alpha {
		cfg.BaseURL = config.AlphaBaseURL
	}

	if cmd.Flags().Changed("describe") {
		cfg.Describe, err = cmd.Flags().GetBool("describe")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("delay") {
		cfg.RequestDelay, err = cmd.Flags().GetDuration("delay")
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// runCycle wires the pipeline together and runs one collection cycle.
func runCycle(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*collector.CycleResult, error) {
	// Oversized code lists are clamped here rather than rejected: the
	// operator asked for too much, collect what compliance allows.
	codes := cfg.NAICSCodes
	if len(codes) > cfg.MaxFilterValues {
		logger.Warn("tracked code list clamped to the filter ceiling",
			"requested", len(codes),
			"ceiling", cfg.MaxFilterValues,
		)
		codes = codes[:cfg.MaxFilterValues]
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	client := samgov.NewClient(httpClient, cfg.APIKey,
		samgov.WithBaseURL(cfg.BaseURL),
		samgov.WithPageSize(cfg.PageSize),
		samgov.WithDelay(cfg.RequestDelay),
		samgov.WithUserAgent(cfg.UserAgent),
		samgov.WithMaxFilterValues(cfg.MaxFilterValues),
		samgov.WithMaxWindowDays(cfg.MaxWindowDays),
		samgov.WithQuota(samgov.NewQuota(cfg.MaxDailyCalls)),
		samgov.WithLogger(logger),
	)

	st, err := store.Open(cfg.StoragePath, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open opportunity store: %w", err)
	}

	opts := []collector.CollectorOption{
		collector.WithCodes(codes),
		collector.WithTypeFilter(cfg.TypeFilter),
		collector.WithMaxWindowDays(cfg.MaxWindowDays),
		collector.WithLogger(logger),
	}

	// Cycle history is observability; a broken database only costs the
	// audit trail, never the cycle.
	if cfg.HistoryDBDir != "" {
		hdb, err := history.Open(cfg.HistoryDBDir, history.DefaultOptions())
		if err != nil {
			logger.Warn("cycle history disabled", "error", err)
		} else {
			defer hdb.Close()
			opts = append(opts, collector.WithRecorder(hdb))
		}
	}

	c := collector.NewCollector(client, st, opts...)

	result, err := c.CollectSince(ctx, cfg.LookbackDays)
	if err != nil {
		if samgov.IsComplianceViolation(err) {
			return result, fmt.Errorf("collection stopped by a compliance ceiling: %w", err)
		}
		return result, err
	}

	resolveDescriptions(ctx, cfg, httpClient, st, result, logger)
	dispatchDelta(ctx, cfg, httpClient, result, logger)

	return result, nil
}

// resolveDescriptions fetches detail descriptions for this cycle's new
// records, up to the configured bound, and persists them on the store.
func resolveDescriptions(ctx context.Context, cfg *config.Config, httpClient *http.Client, st *store.Store, result *collector.CycleResult, logger *slog.Logger) {
	if !cfg.Describe || len(result.NewRecords) == 0 {
		return
	}

	resolver := describe.NewResolver(httpClient, cfg.APIKey, logger)
	resolved := 0
	for _, op := range result.NewRecords {
		if resolved >= cfg.MaxDescribe {
			break
		}
		text, err := resolver.Resolve(ctx, op)
		if err != nil {
			if errors.Is(err, describe.ErrNoDescriptionURL) {
				continue
			}
			logger.Warn("description resolution failed",
				"noticeId", op.NoticeID,
				"error", err,
			)
			continue
		}
		st.SetDescription(op.NoticeID, text)
		resolved++
	}
	if resolved == 0 {
		return
	}
	if err := st.Persist(); err != nil {
		logger.Warn("failed to persist resolved descriptions", "error", err)
	}
	logger.Info("descriptions resolved", "count", resolved)
}

// dispatchDelta pushes the newly accepted records to the configured
// downstream collaborators.
func dispatchDelta(ctx context.Context, cfg *config.Config, httpClient *http.Client, result *collector.CycleResult, logger *slog.Logger) {
	var targets []dispatch.Target

	notifier := notify.NewNotifier(httpClient, cfg.WebhookURL, logger)
	if notifier.Enabled() {
		targets = append(targets, dispatch.Target{
			Name:    "webhook",
			Deliver: notifier.Notify,
		})
	}

	crmClient := crm.NewClient(httpClient, cfg.CRMBaseURL, cfg.CRMAPIKey, logger)
	if crmClient.Enabled() {
		targets = append(targets, dispatch.Target{
			Name: "crm",
			Deliver: func(ctx context.Context, _ model.CycleStats, newRecords []model.Opportunity) error {
				if _, err := crmClient.Verify(ctx); err != nil {
					return err
				}
				_, err := crmClient.Import(ctx, newRecords, true)
				return err
			},
		})
	}

	if len(targets) == 0 {
		return
	}
	d := dispatch.NewDispatcher(logger, targets...)
	if failed := d.Dispatch(ctx, result.Stats, result.NewRecords); failed > 0 {
		logger.Warn("some collaborator deliveries failed", "failed", failed)
	}
}

// printCycleSummary writes the five cycle counts to stdout.
func printCycleSummary(cmd *cobra.Command, stats model.CycleStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cycle %s (%s .. %s)\n",
		stats.CycleID,
		stats.Window.From.Format("2006-01-02"),
		stats.Window.To.Format("2006-01-02"),
	)
	fmt.Fprintf(out, "  fetched:           %d\n", stats.TotalFetched)
	fmt.Fprintf(out, "  duplicates merged: %d\n", stats.DuplicatesMerged)
	fmt.Fprintf(out, "  filtered by type:  %d\n", stats.NonMatchingType)
	fmt.Fprintf(out, "  already collected: %d\n", stats.AlreadyCollected)
	fmt.Fprintf(out, "  newly accepted:    %d\n", stats.NewlyAccepted)
}
