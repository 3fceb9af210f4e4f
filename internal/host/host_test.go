package host_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders-rh/dockctl/internal/host"
)

func TestSnapshot(t *testing.T) {
	c, err := host.NewInspector(nil).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Greater(t, c.LogicalCores, 0)
	assert.Greater(t, c.MemoryTotal, uint64(0))
	assert.LessOrEqual(t, c.MemoryUsed, c.MemoryTotal)
}
