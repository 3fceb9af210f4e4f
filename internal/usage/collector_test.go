package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/internal/engine/enginetest"
)

func newFake() *enginetest.Fake {
	f := enginetest.New()
	f.AddContainer(engine.Container{ID: "aaaaaaaaaaaa", Names: []string{"/web"}, State: "running"},
		&engine.Usage{CPUPercent: 40, MemoryBytes: 256 << 20, MemoryLimit: 1 << 30, UptimeSeconds: 3600})
	f.AddContainer(engine.Container{ID: "bbbbbbbbbbbb", Names: []string{"/db"}, State: "running"},
		&engine.Usage{CPUPercent: 2, MemoryBytes: 64 << 20, MemoryLimit: 1 << 30, UptimeSeconds: 7200})
	f.AddContainer(engine.Container{ID: "cccccccccccc", Names: []string{"/old"}, State: "exited"}, nil)
	return f
}

func TestCollectRunningOnly(t *testing.T) {
	f := newFake()
	c := NewCollector(f, bulk.NewDispatcher(bulk.DefaultConfig()), nil)

	col, err := c.Collect(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, col.Usage, 2)
	assert.Empty(t, col.Failed)
	assert.Equal(t, "web", col.Usage[0].Name)
	assert.Equal(t, "db", col.Usage[1].Name)

	samples := col.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, "web", samples[0].Name)
	assert.Equal(t, 40.0, samples[0].Sample.CPUPercent)
	assert.False(t, f.Called("get container stats", "cccccccccccc"))
}

func TestCollectAll(t *testing.T) {
	c := NewCollector(newFake(), bulk.NewDispatcher(bulk.DefaultConfig()), nil)

	col, err := c.Collect(context.Background(), true)
	require.NoError(t, err)

	require.Len(t, col.Usage, 3)
	assert.Equal(t, "old", col.Usage[2].Name)
}

func TestCollectPartialFailure(t *testing.T) {
	f := newFake()
	f.Errors["get container stats"] = errors.New("stats stream closed")
	c := NewCollector(f, bulk.NewDispatcher(bulk.DefaultConfig()), nil)

	col, err := c.Collect(context.Background(), false)
	require.NoError(t, err)

	assert.Empty(t, col.Usage)
	require.Len(t, col.Failed, 2)
	assert.Equal(t, "aaaaaaaaaaaa", col.Failed[0].ID)
	assert.Contains(t, col.Failed[0].Error, "stats stream closed")
	assert.Empty(t, col.Samples())
}

func TestCollectListFailure(t *testing.T) {
	f := newFake()
	f.Down = true
	c := NewCollector(f, bulk.NewDispatcher(bulk.DefaultConfig()), nil)

	_, err := c.Collect(context.Background(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrUnavailable)
}

func TestCollectEmpty(t *testing.T) {
	c := NewCollector(enginetest.New(), bulk.NewDispatcher(bulk.DefaultConfig()), nil)

	col, err := c.Collect(context.Background(), true)
	require.NoError(t, err)
	assert.NotNil(t, col.Usage)
	assert.Empty(t, col.Usage)
}
