package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linkdepth/linkdepth/internal/api"
	"github.com/linkdepth/linkdepth/internal/clock/system"
	"github.com/linkdepth/linkdepth/internal/config"
	"github.com/linkdepth/linkdepth/internal/decisionlog"
	"github.com/linkdepth/linkdepth/internal/engine"
	"github.com/linkdepth/linkdepth/internal/feed"
	collyfetcher "github.com/linkdepth/linkdepth/internal/fetcher/colly"
	"github.com/linkdepth/linkdepth/internal/frontier"
	"github.com/linkdepth/linkdepth/internal/hash/sha256"
	"github.com/linkdepth/linkdepth/internal/id/uuid"
	"github.com/linkdepth/linkdepth/internal/logging"
	"github.com/linkdepth/linkdepth/internal/overflow"
	"github.com/linkdepth/linkdepth/internal/seeds"
)

func newCrawlCmd() *cobra.Command {
	var bfs bool
	cmd := &cobra.Command{
		Use:   "crawl <seeds.csv> [found.jl]",
		Short: "Run a focused crawl from a seed file",
		Long: `Reads target URLs from a CSV file (columns: url, start, start_depth),
validates each target's reachability, then crawls every domain from its
start points until all targets are found or the frontier drains. The
optional second argument names the JSONL feed recording each target as
it is found.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			foundPath := ""
			if len(args) > 1 {
				foundPath = args[1]
			}
			return runCrawl(cmd.Context(), args[0], foundPath, bfs)
		},
	}
	cmd.Flags().BoolVar(&bfs, "bfs", false, "crawl breadth-first instead of pagination-first")
	return cmd
}

func runCrawl(ctx context.Context, seedsPath, foundPath string, bfs bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if bfs {
		cfg.Crawl.LinkStrategy = string(frontier.StrategyBreadthFirst)
	}
	if foundPath != "" {
		cfg.Crawl.FoundPath = foundPath
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	fs := afero.NewOsFs()
	seedList, err := seeds.Load(fs, seedsPath)
	if err != nil {
		return err
	}
	if len(seedList) == 0 {
		return fmt.Errorf("no seeds in %s", seedsPath)
	}

	crawlID, err := uuid.New().NewID()
	if err != nil {
		return err
	}
	logger.Info("starting crawl",
		zap.String("crawl", crawlID),
		zap.Int("seeds", len(seedList)),
		zap.String("strategy", cfg.Crawl.LinkStrategy),
	)

	sched, tracker, err := buildScheduler(fs, cfg, logger)
	if err != nil {
		return err
	}

	var found engine.FoundSink
	if cfg.Crawl.FoundPath != "" {
		w, err := feed.New(fs, cfg.Crawl.FoundPath)
		if err != nil {
			closeScheduler(sched, logger)
			return err
		}
		found = w
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("feed close failed", zap.Error(err))
			}
		}()
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
	eng := engine.New(sched, tracker, fetcher, system.New(), found, engine.Config{
		CrawlID:  crawlID,
		Strategy: frontier.LinkStrategy(cfg.Crawl.LinkStrategy),
	}, logger.Named("engine"))

	if err := eng.Bootstrap(seedList); err != nil {
		closeScheduler(sched, logger)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Crawl.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Crawl.Timeout)
		defer cancel()
	}

	if cfg.Server.Enabled {
		shutdown := startStatusServer(cfg.Server.Port, eng, logger.Named("api"))
		defer shutdown()
	}

	runErr := eng.Run(ctx)
	closeScheduler(sched, logger)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		logger.Info("crawl interrupted", zap.Error(runErr))
		return nil
	}
	return runErr
}

// buildScheduler assembles the frontier facade from configuration: the
// round-robin queue (optionally disk-spilled), dupe filter, completion gate,
// admission control and decision log.
func buildScheduler(fs afero.Fs, cfg config.Config, logger *zap.Logger) (*frontier.Scheduler, *frontier.Tracker, error) {
	var overflowFactory frontier.OverflowFactory
	if cfg.Frontier.OverflowPath != "" {
		open := overflow.NewFactory(fs, cfg.Frontier.OverflowPath)
		overflowFactory = func(slot string, priority int) (frontier.ByteQueue, error) {
			return open(slot, priority)
		}
	}
	queue := frontier.NewRoundRobinQueue(frontier.QueueConfig{
		Overflow: overflowFactory,
		Logger:   logger.Named("queue"),
	})

	var sink frontier.DecisionSink
	if cfg.Frontier.DecisionLogPath != "" {
		w, err := decisionlog.New(fs, cfg.Frontier.DecisionLogPath)
		if err != nil {
			return nil, nil, err
		}
		sink = w
	}

	tracker := frontier.NewTracker(logger.Named("tracker"))
	sched := frontier.NewScheduler(
		queue,
		frontier.NewFingerprintFilter(sha256.New()),
		frontier.NewGate(tracker),
		frontier.NewAdmission(cfg.Crawl.MaxRequestsPerDomain, logger.Named("admission")),
		sink,
		logger.Named("scheduler"),
	)
	return sched, tracker, nil
}

func startStatusServer(port int, eng *engine.Engine, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.NewServer(eng, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("status server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown failed", zap.Error(err))
		}
	}
}

func closeScheduler(sched *frontier.Scheduler, logger *zap.Logger) {
	if err := sched.Close(); err != nil {
		logger.Error("scheduler close failed", zap.Error(err))
	}
}
