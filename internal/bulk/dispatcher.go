// Package bulk applies one action to many resource identifiers concurrently.
//
// Every dispatch settles all items: a failing identifier never aborts or
// delays its siblings, and the result list always has exactly one entry per
// input identifier, in input order.
package bulk

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the terminal outcome of one item in a bulk dispatch
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result is the outcome for one input identifier
type Result struct {
	ID     string      `json:"id"`
	Status Status      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Succeeded returns true if the action completed without error
func (r Result) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Action performs the work for a single identifier
type Action func(ctx context.Context, id string) (interface{}, error)

// Observer is notified after each item settles
type Observer func(result Result, elapsed time.Duration)

// Config holds dispatcher configuration
type Config struct {
	// MaxConcurrency bounds in-flight actions; zero or negative means unbounded
	MaxConcurrency int `yaml:"max_concurrency" env:"MAX_CONCURRENCY" validate:"gte=0"`
	// ItemTimeout bounds a single action; zero disables the per-item deadline
	ItemTimeout time.Duration `yaml:"item_timeout" env:"ITEM_TIMEOUT" validate:"gte=0"`
}

// DefaultConfig returns default dispatcher configuration
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: 10,
		ItemTimeout:    30 * time.Second,
	}
}

// Dispatcher fans an action out over identifiers with settle-all semantics
type Dispatcher struct {
	config    *Config
	observers []Observer
}

// NewDispatcher creates a dispatcher. If config is nil, defaults are used.
func NewDispatcher(config *Config, observers ...Observer) *Dispatcher {
	if config == nil {
		config = DefaultConfig()
	}
	return &Dispatcher{
		config:    config,
		observers: observers,
	}
}

// Dispatch runs action for every id and waits for all of them to settle.
// Results are written into slots indexed by input position, so the returned
// slice lines up with ids regardless of completion order. The dispatcher does
// not retry.
func (d *Dispatcher) Dispatch(ctx context.Context, ids []string, action Action) []Result {
	results := make([]Result, len(ids))

	// The group's context is never cancelled by an item because item
	// goroutines always return nil.
	var g errgroup.Group
	if d.config.MaxConcurrency > 0 {
		g.SetLimit(d.config.MaxConcurrency)
	}

	for i, id := range ids {
		g.Go(func() error {
			results[i] = d.run(ctx, id, action)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// run executes one item and converts its outcome, including a panic, into a Result
func (d *Dispatcher) run(ctx context.Context, id string, action Action) (result Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = Result{ID: id, Status: StatusFailed, Error: fmt.Sprintf("panic: %v", r)}
		}
		for _, observe := range d.observers {
			observe(result, time.Since(start))
		}
	}()

	itemCtx := ctx
	if d.config.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, d.config.ItemTimeout)
		defer cancel()
	}

	// A cancelled parent still yields one failed record per id.
	if err := itemCtx.Err(); err != nil {
		return Result{ID: id, Status: StatusFailed, Error: err.Error()}
	}

	data, err := action(itemCtx, id)
	if err != nil {
		return Result{ID: id, Status: StatusFailed, Error: err.Error()}
	}

	return Result{ID: id, Status: StatusSucceeded, Data: data}
}

// Summary counts outcomes in a result list
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts succeeded and failed results
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
