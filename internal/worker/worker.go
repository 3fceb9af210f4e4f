// Package worker runs the periodic usage sampler: it reads container usage,
// prices it, persists the samples and publishes the resulting cost report.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/metrics"
	"github.com/tsanders-rh/dockctl/internal/usage"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// Config holds worker configuration
type Config struct {
	WorkerID string `yaml:"worker_id" env:"ID"`
	// Interval between sampling passes
	Interval time.Duration `yaml:"interval" env:"INTERVAL" validate:"gt=0"`
	// RunTimeout bounds one sampling pass
	RunTimeout time.Duration `yaml:"run_timeout" env:"RUN_TIMEOUT" validate:"gte=0"`
	// IncludeStopped samples stopped containers too; they price at zero CPU
	IncludeStopped bool `yaml:"include_stopped" env:"INCLUDE_STOPPED"`
	// MetricsAddress serves /metrics for the worker process; empty disables it
	MetricsAddress string `yaml:"metrics_address" env:"METRICS_ADDRESS"`
}

// DefaultConfig returns default worker configuration
func DefaultConfig() *Config {
	hostname, _ := os.Hostname()
	return &Config{
		WorkerID:       fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8]),
		Interval:       time.Minute,
		RunTimeout:     45 * time.Second,
		MetricsAddress: ":9091",
	}
}

// UsageRecorder persists usage samples
type UsageRecorder interface {
	RecordBatch(ctx context.Context, samples []*types.UsageRecord) error
}

// ReportExporter publishes a cost report and returns where it was written
type ReportExporter interface {
	Export(ctx context.Context, report *cost.Report) (string, error)
}

// Dependencies are the worker's collaborators. Recorder and Exporter are
// optional and skipped when nil.
type Dependencies struct {
	Collector *usage.Collector
	Cost      *cost.Analyzer
	Metrics   *metrics.Metrics
	Recorder  UsageRecorder
	Exporter  ReportExporter
	Logger    *zap.Logger
}

// Run is the outcome of one sampling pass
type Run struct {
	Report    *cost.Report
	Records   []*types.UsageRecord
	Skipped   int
	ExportURI string
}

// Worker samples container usage on a fixed interval
type Worker struct {
	config *Config
	deps   Dependencies
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWorker creates a new worker instance
func NewWorker(config *Config, deps Dependencies) *Worker {
	if config == nil {
		config = DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Cost == nil {
		deps.Cost = cost.NewAnalyzer(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	return &Worker{
		config: config,
		deps:   deps,
		logger: deps.Logger.With(zap.String("worker_id", config.WorkerID)),
		now:    time.Now,
	}
}

// Start samples immediately and then on every tick until ctx is cancelled
// or Stop is called
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Info("worker starting",
		zap.Duration("interval", w.config.Interval),
		zap.Bool("include_stopped", w.config.IncludeStopped))

	w.tick(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return ctx.Err()

		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// Stop stops the worker gracefully
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Worker) tick(ctx context.Context) {
	if w.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.RunTimeout)
		defer cancel()
	}

	run, err := w.RunOnce(ctx)
	if err != nil {
		w.logger.Error("sampling pass failed", zap.Error(err))
		return
	}

	w.logger.Info("sampling pass completed",
		zap.Int("containers", run.Report.ContainerCount),
		zap.Int("skipped", run.Skipped),
		zap.Int("idle", len(run.Report.IdleContainers)),
		zap.Float64("monthly_cost", run.Report.TotalCost.Monthly),
		zap.String("export_uri", run.ExportURI))
}

// RunOnce performs one sampling pass. A failure to list containers aborts
// the pass; persistence and export failures are returned after the report
// has been published to metrics.
func (w *Worker) RunOnce(ctx context.Context) (*Run, error) {
	collection, err := w.deps.Collector.Collect(ctx, w.config.IncludeStopped)
	if err != nil {
		w.deps.Metrics.RecordSamplerRun(false)
		return nil, err
	}

	report := w.deps.Cost.Report(collection.Samples())
	w.deps.Metrics.RecordCostReport(report)

	run := &Run{
		Report:  report,
		Records: w.records(collection),
		Skipped: len(collection.Failed),
	}

	var errs []error
	if w.deps.Recorder != nil && len(run.Records) > 0 {
		if err := w.deps.Recorder.RecordBatch(ctx, run.Records); err != nil {
			errs = append(errs, fmt.Errorf("record usage samples: %w", err))
		}
	}

	if w.deps.Exporter != nil {
		uri, err := w.deps.Exporter.Export(ctx, report)
		if err != nil {
			errs = append(errs, fmt.Errorf("export cost report: %w", err))
		}
		run.ExportURI = uri
	}

	err = errors.Join(errs...)
	w.deps.Metrics.RecordSamplerRun(err == nil)
	return run, err
}

// records prices each sample. Every record in a pass shares one sample time.
func (w *Worker) records(collection *usage.Collection) []*types.UsageRecord {
	sampleTime := w.now().UTC().Truncate(time.Second)
	model := w.deps.Cost.Model()
	idle := w.deps.Cost.IdleDetector()

	records := make([]*types.UsageRecord, len(collection.Usage))
	for i, u := range collection.Usage {
		sample := u.Sample()
		records[i] = &types.UsageRecord{
			ID:            types.GenerateID(),
			ContainerID:   u.ContainerID,
			ContainerName: u.Name,
			SampleTime:    sampleTime,
			CPUPercent:    u.CPUPercent,
			MemoryBytes:   int64(u.MemoryBytes),
			MemoryLimit:   int64(u.MemoryLimit),
			UptimeSeconds: u.UptimeSeconds,
			HourlyCost:    model.Estimate(sample).Hourly,
			Idle:          idle.IsIdle(sample),
		}
	}
	return records
}
