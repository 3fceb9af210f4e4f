// Package janitor prunes persisted history on a cron schedule.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Config holds janitor configuration
type Config struct {
	// Schedule is a standard five-field cron expression or a descriptor such as @hourly
	Schedule string `yaml:"schedule" env:"SCHEDULE" validate:"required"`
	TimeZone string `yaml:"time_zone" env:"TIME_ZONE"`

	UsageRetention    time.Duration `yaml:"usage_retention" env:"USAGE_RETENTION" validate:"gte=0"`
	ActionRetention   time.Duration `yaml:"action_retention" env:"ACTION_RETENTION" validate:"gte=0"`
	ExpiredKeyCleanup bool          `yaml:"expired_key_cleanup" env:"EXPIRED_KEY_CLEANUP"`
}

// DefaultConfig returns default janitor configuration
func DefaultConfig() *Config {
	return &Config{
		Schedule:          "@hourly",
		TimeZone:          "UTC",
		UsageRetention:    30 * 24 * time.Hour,
		ActionRetention:   90 * 24 * time.Hour,
		ExpiredKeyCleanup: true,
	}
}

// Pruner deletes rows older than a cutoff
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// KeyCleaner deletes expired idempotency keys
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Stores are the tables the janitor prunes. A nil store or a zero retention
// skips that task.
type Stores struct {
	Usage       Pruner
	Actions     Pruner
	Idempotency KeyCleaner
}

// Result counts the rows removed by one pass
type Result struct {
	UsageDeleted   int64
	ActionsDeleted int64
	KeysDeleted    int64
}

// Janitor performs periodic cleanup tasks
type Janitor struct {
	config *Config
	stores Stores
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewJanitor creates a new janitor instance
func NewJanitor(config *Config, stores Stores, logger *zap.Logger) *Janitor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Janitor{
		config: config,
		stores: stores,
		logger: logger,
		now:    time.Now,
	}
}

// Start runs a pass immediately, then on the configured schedule until ctx
// is cancelled or Stop is called. A pass still running at shutdown is
// waited for.
func (j *Janitor) Start(ctx context.Context) error {
	location := time.UTC
	if j.config.TimeZone != "" {
		loc, err := time.LoadLocation(j.config.TimeZone)
		if err != nil {
			return fmt.Errorf("load time zone %q: %w", j.config.TimeZone, err)
		}
		location = loc
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	j.mu.Lock()
	j.cancel = cancel
	j.mu.Unlock()

	logger := cronLogger{j.logger.Sugar()}
	scheduler := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := scheduler.AddFunc(j.config.Schedule, func() { j.run(ctx) }); err != nil {
		return fmt.Errorf("schedule janitor %q: %w", j.config.Schedule, err)
	}

	j.logger.Info("janitor starting",
		zap.String("schedule", j.config.Schedule),
		zap.String("time_zone", location.String()))

	j.run(ctx)

	scheduler.Start()
	<-ctx.Done()

	j.logger.Info("janitor shutting down")
	<-scheduler.Stop().Done()
	return ctx.Err()
}

// Stop stops the janitor gracefully
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		j.cancel()
	}
}

func (j *Janitor) run(ctx context.Context) {
	result, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("janitor pass failed", zap.Error(err))
	}
	if result.UsageDeleted+result.ActionsDeleted+result.KeysDeleted > 0 {
		j.logger.Info("janitor pass completed",
			zap.Int64("usage_deleted", result.UsageDeleted),
			zap.Int64("actions_deleted", result.ActionsDeleted),
			zap.Int64("keys_deleted", result.KeysDeleted))
	}
}

// RunOnce performs every cleanup task. Tasks are independent: one failing
// does not skip the others.
func (j *Janitor) RunOnce(ctx context.Context) (Result, error) {
	var (
		result Result
		errs   []error
		now    = j.now()
	)

	if j.stores.Usage != nil && j.config.UsageRetention > 0 {
		n, err := j.stores.Usage.DeleteOlderThan(ctx, now.Add(-j.config.UsageRetention))
		if err != nil {
			errs = append(errs, fmt.Errorf("prune usage samples: %w", err))
		}
		result.UsageDeleted = n
	}

	if j.stores.Actions != nil && j.config.ActionRetention > 0 {
		n, err := j.stores.Actions.DeleteOlderThan(ctx, now.Add(-j.config.ActionRetention))
		if err != nil {
			errs = append(errs, fmt.Errorf("prune action records: %w", err))
		}
		result.ActionsDeleted = n
	}

	if j.stores.Idempotency != nil && j.config.ExpiredKeyCleanup {
		n, err := j.stores.Idempotency.CleanupExpired(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("cleanup idempotency keys: %w", err))
		}
		result.KeysDeleted = n
	}

	return result, errors.Join(errs...)
}

// cronLogger routes the scheduler's own logging through zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
