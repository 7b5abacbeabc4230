package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/mirrorsync/internal/config"
	"github.com/nao1215/mirrorsync/internal/domain"
	"github.com/nao1215/mirrorsync/internal/extract"
	"github.com/nao1215/mirrorsync/internal/fetch"
	"github.com/nao1215/mirrorsync/internal/history"
	"github.com/nao1215/mirrorsync/internal/metrics"
	"github.com/nao1215/mirrorsync/internal/model"
	"github.com/nao1215/mirrorsync/internal/pipeline"
	"github.com/nao1215/mirrorsync/internal/report"
	"github.com/nao1215/mirrorsync/internal/snapshot"
	"github.com/nao1215/mirrorsync/internal/tor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// errNoGroups is returned when --groups matches nothing in the catalog.
var errNoGroups = errors.New("no catalog group matches the group filter")

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh every instance snapshot from its upstream source",
		Long: `Sync fetches the upstream instance list of every catalog entry, extracts and
normalizes the domains and rewrites instances/<group>/<network>.json and .txt
only when the sorted list changed. Reports are regenerated afterwards.

Entries run tier by tier (catalog priority). In concurrent mode every entry
of a tier runs at once; in sequential mode groups run one after another with
--group-delay between them.

Examples:
  # Refresh everything into the current directory
  mirrorsync sync

  # Only Piped and nitter, one group at a time
  mirrorsync sync --groups Piped,nitter --mode sequential

  # Probe .onion mirrors through a running Tor daemon
  mirrorsync sync --tor-proxy 127.0.0.1:9050`,
		Args: cobra.NoArgs,
		RunE: runSyncCmd,
	}

	cmd.Flags().String("mode", config.DefaultMode, "Scheduling mode: sequential or concurrent")
	cmd.Flags().Int("concurrency", 0, "Maximum entries in flight in concurrent mode (0 = unlimited)")
	cmd.Flags().Duration("group-delay", config.DefaultGroupDelay, "Pause between groups in sequential mode")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each HTTP request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header sent upstream")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum bytes read from one response")
	cmd.Flags().Int("retries", config.DefaultMaxRetries, "Retries after a failed entry attempt")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryDelay, "Base delay between entry attempts")
	cmd.Flags().Float64("retry-multiplier", config.DefaultRetryMultiplier, "Multiplier applied to the retry delay per attempt")
	cmd.Flags().Int("connect-retries", config.DefaultConnectRetries, "Extra GETs when connecting to a source times out")
	cmd.Flags().Duration("connect-retry-delay", config.DefaultConnectRetryDelay, "Delay between connect-timeout retries")
	cmd.Flags().Bool("trace-errors", false, "Log the full error chain of failed attempts")
	cmd.Flags().Bool("keep-duplicates", false, "Keep duplicate domains instead of removing them")
	cmd.Flags().Bool("ignore-path-domains", true, "Reject URLs that carry a path")
	cmd.Flags().Bool("allow-path-domains", false, "Keep host+path for URLs with a path (needs --ignore-path-domains=false)")
	cmd.Flags().Bool("strict", false, "Drop domains failing IDNA or onion checksum validation")
	cmd.Flags().Duration("liveness-interval", config.DefaultLivenessInterval, "Minimum gap between liveness probes")
	cmd.Flags().String("cache-scope", config.DefaultCacheScope, "Fetch cache scope: run, group or off")
	cmd.Flags().Int("header-concurrency", config.DefaultHeaderConcurrency, "Parallel header requests per header-derived entry")
	cmd.Flags().StringSliceP("groups", "g", nil, "Only sync these groups (name or path, comma separated)")
	cmd.Flags().String("tor-proxy", "", "Route .onion requests through this SOCKS5 proxy (host:port)")
	cmd.Flags().Bool("embedded-tor", false, "Start an embedded Tor daemon for .onion requests")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout, "Timeout for embedded Tor startup")
	cmd.Flags().String("history-dir", "", "Directory of the run history database (default: XDG data dir)")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().Bool("skip-reports", false, "Do not regenerate ReadMe.MD, all.json and all.md")

	return cmd
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, finishing current entries...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runSync(ctx, cfg, logger, cmd.OutOrStdout())
}

// runSync wires the components for one run and executes it.
func runSync(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	full, source, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	cat := full.Filter(cfg.GroupsOnly)
	if len(cat.Groups) == 0 {
		return fmt.Errorf("%w: %v", errNoGroups, cfg.GroupsOnly)
	}
	logger.Info("catalog loaded",
		"source", source,
		"groups", len(cat.Groups),
		"entries", len(cat.Entries()),
	)

	torHTTP, stopTor, err := setupTor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTor()

	clientOpts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithConnectRetry(cfg.ConnectRetries, cfg.ConnectRetryDelay),
		fetch.WithLogger(logger),
	}
	if torHTTP != nil {
		clientOpts = append(clientOpts, fetch.WithTorClient(torHTTP))
	}
	client := fetch.NewClient(cfg.Timeout, clientOpts...)

	m := metrics.New(prometheus.NewRegistry())
	scope, _ := fetch.ParseScope(cfg.CacheScope)
	sources := fetch.NewSourceFetcher(client, cat, fetch.NewCache(), scope,
		fetch.WithObserver(m.ObserveFetch),
		fetch.WithSourceLogger(logger),
	)

	store := snapshot.NewFileStore(cfg.OutputDir)
	policy := domain.Policy{IgnorePaths: cfg.IgnorePathDomains, AllowPaths: cfg.AllowPathDomains}

	extractor := extract.New(sources,
		extract.WithSnapshots(store, full),
		extract.WithHeaderReader(client),
		extract.WithPolicy(policy),
		extract.WithHeaderConcurrency(cfg.HeaderConcurrency),
		extract.WithLogger(logger),
	)
	updater := pipeline.NewUpdater(store, extractor,
		pipeline.WithProber(fetch.NewProber(client, cfg.LivenessInterval)),
		pipeline.WithPolicy(policy),
		pipeline.WithEscapeDuplicates(cfg.EscapeDuplicates),
		pipeline.WithStrictDomains(cfg.StrictDomains),
		pipeline.WithUpdaterLogger(logger),
	)
	retrier := pipeline.NewRetrier(updater,
		pipeline.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
			Multiplier: cfg.RetryMultiplier,
		},
		pipeline.WithTraceErrors(cfg.TraceErrors),
		pipeline.WithRetrierLogger(logger),
	)

	mode, err := pipeline.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	started := time.Now()
	runs := openHistory(ctx, cfg, mode, started, logger)
	defer runs.close()

	scheduler := pipeline.NewScheduler(retrier,
		pipeline.WithMode(mode),
		pipeline.WithGroupDelay(cfg.GroupDelay),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithResultHook(func(r model.SyncResult) {
			m.ObserveResult(r)
			runs.record(r)
		}),
		pipeline.WithSchedulerLogger(logger),
	)

	logger.Debug("writing snapshots", "output", store.InstancesRoot(), "tiers", cat.Tiers())
	results := scheduler.RunAll(ctx, cat)
	elapsed := time.Since(started)
	finished := time.Now()

	runs.finish(finished)

	if !cfg.SkipReports {
		gen := report.NewGenerator(store, report.WithLogger(logger))
		if err := gen.WriteAll(full); err != nil {
			logger.Error("failed to write reports", "error", err)
		}
	}

	m.MarkRunFinished(finished)
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if _, err := report.NewSummaryWriter(out, report.WithVerbose(cfg.Verbose)).Write(results, elapsed); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync interrupted: %w", err)
	}
	return nil
}

// setupTor returns the HTTP client used for .onion hosts, or nil when no
// Tor route is configured. The returned stop function is always non-nil.
func setupTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	noop := func() {}

	switch {
	case cfg.TorProxyAddress != "":
		client, err := tor.NewClient(cfg.TorProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, noop, fmt.Errorf("tor proxy check failed: %w (make sure Tor is running at %s)",
				status.Err(), cfg.TorProxyAddress)
		}
		logger.Info("Tor proxy connection verified", "address", cfg.TorProxyAddress)
		return client.HTTPClient(), noop, nil

	case cfg.EmbeddedTor:
		embedded := tor.NewEmbeddedTor(
			tor.WithStartupTimeout(cfg.TorStartupTimeout),
			tor.WithEmbeddedLogger(logger),
		)
		if err := embedded.Start(ctx); err != nil {
			return nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		stop := func() {
			logger.Info("stopping embedded Tor daemon")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		client, err := embedded.NewClient(cfg.Timeout)
		if err != nil {
			stop()
			return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			stop()
			return nil, noop, fmt.Errorf("embedded Tor proxy check failed: %w", status.Err())
		}
		return client.HTTPClient(), stop, nil

	default:
		return nil, noop, nil
	}
}

// historyRun records one run. A history database that cannot be opened
// disables recording with a warning; the sync itself goes on.
type historyRun struct {
	db       *history.DB
	runID    int64
	recorder *history.Recorder
	logger   *slog.Logger
}

func openHistory(ctx context.Context, cfg *config.Config, mode pipeline.Mode, started time.Time, logger *slog.Logger) *historyRun {
	h := &historyRun{logger: logger}
	if cfg.HistoryDir == "" {
		return h
	}

	db, err := history.Open(cfg.HistoryDir, history.DefaultOptions())
	if err != nil {
		logger.Warn("run history disabled", "dir", cfg.HistoryDir, "error", err)
		return h
	}
	runID, err := db.BeginRun(ctx, string(mode), started)
	if err != nil {
		logger.Warn("run history disabled", "dir", cfg.HistoryDir, "error", err)
		_ = db.Close()
		return h
	}

	h.db = db
	h.runID = runID
	h.recorder = history.NewRecorder(db, runID, logger)
	logger.Debug("recording run history", "path", db.Path(), "run", runID)
	return h
}

func (h *historyRun) record(r model.SyncResult) {
	if h.recorder != nil {
		h.recorder.Record(r)
	}
}

func (h *historyRun) finish(t time.Time) {
	if h.db == nil {
		return
	}
	if err := h.db.FinishRun(context.Background(), h.runID, t); err != nil {
		h.logger.Warn("failed to finish run history", "run", h.runID, "error", err)
	}
}

func (h *historyRun) close() {
	if h.db != nil {
		_ = h.db.Close()
	}
}
