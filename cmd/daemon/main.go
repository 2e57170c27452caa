package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/app"
	"github.com/carmandale/spy-fly/internal/config"
	"github.com/carmandale/spy-fly/internal/notify"
	"github.com/carmandale/spy-fly/internal/selector"
)

func main() {
	os.Exit(run())
}

func run() int {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", path, err)
		return 1
	}

	logger, err := app.NewLogger("daemon", false, &cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	sched, err := resolveSettings(cfg)
	if err != nil {
		logger.Error("invalid daemon settings", zap.Error(err))
		return 1
	}

	a, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", zap.Error(err))
		return 1
	}
	defer a.Close()

	notifyCfg := cfg.NotifyConfig()
	notifier := notify.New(notifyCfg, logger)

	logger.Info("daemon configuration loaded",
		zap.String("configPath", path),
		zap.String("symbol", cfg.Symbols.Underlying),
		zap.String("source", cfg.MarketData.Source),
		zap.Float64("accountSize", cfg.Scan.AccountSize),
		zap.String("stateFile", sched.stateFile),
		zap.Bool("runOnStartup", sched.runOnStartup),
		zap.Bool("notifications", notifyCfg.Enabled),
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	scheduler := NewScheduler(sched.hour, sched.minute, sched.location)
	tracker := NewScanTracker(sched.stateFile)
	job := &scanJob{
		selector:    a.Selector,
		notifier:    notifier,
		tracker:     tracker,
		symbol:      cfg.Symbols.Underlying,
		accountSize: cfg.Scan.AccountSize,
		logger:      logger,
	}

	logger.Info("daemon started",
		zap.String("schedule", fmt.Sprintf("%02d:%02d %s", sched.hour, sched.minute, sched.location)),
	)

	// Check on startup if enabled
	if sched.runOnStartup {
		logger.Info("checking for missed scan on startup")
		if shouldScan(scheduler, tracker, scheduler.MissedToday, logger) {
			job.run(ctx, scheduler.TodayDate())
		}
	}

	// Main loop - check every minute
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			cancel()
			return 0

		case <-ticker.C:
			if shouldScan(scheduler, tracker, scheduler.IsScheduledTime, logger) {
				job.run(ctx, scheduler.TodayDate())
			}

		case <-ctx.Done():
			logger.Info("context cancelled, shutting down")
			return 0
		}
	}
}

// shouldScan checks if conditions are met for triggering a scan
func shouldScan(scheduler *Scheduler, tracker *ScanTracker, due func() bool, logger *zap.Logger) bool {
	today := scheduler.TodayDate()

	if tracker.AlreadyScanned(today) {
		return false
	}

	if !scheduler.IsMarketDay(today) {
		logger.Debug("not a market day", zap.String("date", today))
		return false
	}

	if !due() {
		return false
	}

	logger.Info("scan conditions met",
		zap.String("date", today),
		zap.String("time", scheduler.Clock().Format("15:04:05")),
	)

	return true
}

// scanner is the part of the selector the daemon drives.
type scanner interface {
	Scan(ctx context.Context, req selector.ScanRequest) (*selector.ScanResult, error)
}

type scanJob struct {
	selector    scanner
	notifier    notify.Notifier
	tracker     *ScanTracker
	symbol      string
	accountSize float64
	logger      *zap.Logger
}

// run executes one scan, sends the notification and updates the tracker.
func (j *scanJob) run(ctx context.Context, date string) {
	j.logger.Info("starting scheduled scan", zap.String("date", date))
	start := time.Now()

	result, err := j.selector.Scan(ctx, selector.ScanRequest{AccountSize: j.accountSize, ForceRefresh: true})
	if err != nil {
		j.logger.Error("scan failed", zap.Error(err), zap.String("date", date))
		if nerr := j.notifier.SendFailure(ctx, j.symbol, err); nerr != nil {
			j.logger.Warn("failed to send failure notification", zap.Error(nerr))
		}
		return
	}

	if nerr := j.notifier.SendScan(ctx, j.symbol, result); nerr != nil {
		j.logger.Warn("failed to send scan notification", zap.Error(nerr))
	}

	if result.State == selector.Error {
		j.logger.Warn("scan ended in error",
			zap.String("date", date),
			zap.String("reason", result.Reason),
		)
	}

	j.logger.Info("scheduled scan finished",
		zap.String("date", date),
		zap.String("state", string(result.State)),
		zap.Int("recommendations", len(result.Recommendations)),
		zap.Duration("duration", time.Since(start)),
	)

	if err := j.tracker.SetLastScanDate(date); err != nil {
		j.logger.Error("failed to update tracker", zap.Error(err))
	}
}
