// Package usage samples resource usage across containers.
package usage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/engine"
)

// Collection is the outcome of one sampling pass
type Collection struct {
	// Usage holds one entry per container that could be sampled, in list order
	Usage []*engine.Usage
	// Failed holds the containers whose stats could not be read
	Failed []bulk.Result
}

// Samples returns the collection as named cost samples
func (c *Collection) Samples() []cost.NamedSample {
	samples := make([]cost.NamedSample, len(c.Usage))
	for i, u := range c.Usage {
		samples[i] = u.Named()
	}
	return samples
}

// Collector reads usage for many containers through the bulk dispatcher
type Collector struct {
	engine     engine.Engine
	dispatcher *bulk.Dispatcher
	logger     *zap.Logger
}

// NewCollector creates a usage collector
func NewCollector(eng engine.Engine, dispatcher *bulk.Dispatcher, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		engine:     eng,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Collect lists containers and samples each one concurrently. A container
// whose stats cannot be read is left out of Usage and reported in Failed;
// only a failure to list containers fails the whole pass.
func (c *Collector) Collect(ctx context.Context, all bool) (*Collection, error) {
	containers, err := c.engine.ListContainers(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("list containers for sampling: %w", err)
	}

	ids := make([]string, len(containers))
	names := make(map[string]string, len(containers))
	for i, ctr := range containers {
		ids[i] = ctr.ID
		names[ctr.ID] = ctr.Name
	}

	results := c.dispatcher.Dispatch(ctx, ids, func(ctx context.Context, id string) (interface{}, error) {
		return c.engine.ContainerUsage(ctx, id)
	})

	collection := &Collection{
		Usage:  make([]*engine.Usage, 0, len(results)),
		Failed: []bulk.Result{},
	}
	for _, r := range results {
		u, ok := r.Data.(*engine.Usage)
		if !r.Succeeded() || !ok || u == nil {
			c.logger.Debug("skipping container without stats",
				zap.String("container_id", r.ID),
				zap.String("error", r.Error))
			collection.Failed = append(collection.Failed, r)
			continue
		}
		if name := names[r.ID]; name != "" {
			u.Name = name
		}
		collection.Usage = append(collection.Usage, u)
	}

	return collection, nil
}
