package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders-rh/dockctl/internal/engine"
)

func TestDeriveUsage(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		raw        string
		created    time.Time
		wantCPU    float64
		wantMem    uint64
		wantLimit  uint64
		wantUptime float64
	}{
		{
			name: "online cpus reported",
			raw: `{
				"cpu_stats": {"cpu_usage": {"total_usage": 400}, "system_cpu_usage": 2000, "online_cpus": 2},
				"precpu_stats": {"cpu_usage": {"total_usage": 200}, "system_cpu_usage": 1000},
				"memory_stats": {"usage": 104857600, "limit": 1073741824}
			}`,
			created:    now.Add(-2 * time.Hour),
			wantCPU:    40,
			wantMem:    104857600,
			wantLimit:  1073741824,
			wantUptime: 7200,
		},
		{
			name: "falls back to per-cpu count",
			raw: `{
				"cpu_stats": {"cpu_usage": {"total_usage": 300, "percpu_usage": [1, 1, 1, 1]}, "system_cpu_usage": 2000},
				"precpu_stats": {"cpu_usage": {"total_usage": 200}, "system_cpu_usage": 1000},
				"memory_stats": {"usage": 1, "limit": 2}
			}`,
			created:    now.Add(-time.Minute),
			wantCPU:    40,
			wantMem:    1,
			wantLimit:  2,
			wantUptime: 60,
		},
		{
			name: "first sample has no previous reading",
			raw: `{
				"cpu_stats": {"cpu_usage": {"total_usage": 400}, "system_cpu_usage": 2000, "online_cpus": 2},
				"precpu_stats": {"cpu_usage": {"total_usage": 0}, "system_cpu_usage": 2000},
				"memory_stats": {"usage": 10}
			}`,
			wantCPU:   0,
			wantMem:   10,
			wantLimit: 1,
		},
		{
			name:      "stopped container",
			raw:       `{"cpu_stats": {}, "precpu_stats": {}, "memory_stats": {}}`,
			created:   now.Add(time.Hour),
			wantLimit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage, err := engine.DeriveUsage([]byte(tt.raw), tt.created, now)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantCPU, usage.CPUPercent, 1e-9)
			assert.Equal(t, tt.wantMem, usage.MemoryBytes)
			assert.Equal(t, tt.wantLimit, usage.MemoryLimit)
			assert.InDelta(t, tt.wantUptime, usage.UptimeSeconds, 1e-9)
		})
	}
}

func TestDeriveUsage_InvalidJSON(t *testing.T) {
	_, err := engine.DeriveUsage([]byte("not json"), time.Time{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode container stats")
}

func TestUsage_Sample(t *testing.T) {
	u := &engine.Usage{
		Name:          "web",
		CPUPercent:    12.5,
		MemoryBytes:   2048,
		MemoryLimit:   4096,
		UptimeSeconds: 30,
	}

	named := u.Named()
	assert.Equal(t, "web", named.Name)
	assert.Equal(t, 12.5, named.CPUPercent)
	assert.Equal(t, uint64(2048), named.MemoryBytes)
	assert.Equal(t, uint64(4096), named.MemoryLimit)
	assert.Equal(t, 30.0, named.UptimeSeconds)
}
