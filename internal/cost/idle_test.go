package cost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/dockctl/internal/cost"
)

func TestIdleDetector_IsIdle(t *testing.T) {
	detector := cost.NewIdleDetector(cost.NewModel(nil))

	tests := []struct {
		name   string
		cpu    float64
		uptime float64
		want   bool
	}{
		{name: "just below both thresholds", cpu: 0.99, uptime: 3601, want: true},
		{name: "cpu at threshold", cpu: 1.0, uptime: 3601, want: false},
		{name: "uptime at threshold", cpu: 0.99, uptime: 3600, want: false},
		{name: "busy", cpu: 45, uptime: 86400, want: false},
		{name: "fresh", cpu: 0, uptime: 60, want: false},
		{name: "completely idle for a day", cpu: 0, uptime: 86400, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cost.Sample{CPUPercent: tt.cpu, UptimeSeconds: tt.uptime}
			assert.Equal(t, tt.want, detector.IsIdle(s))
		})
	}
}

func TestIdleDetector_FindIdle(t *testing.T) {
	model := cost.NewModel(nil)
	detector := cost.NewIdleDetector(model)

	samples := []cost.NamedSample{
		{Name: "worker", Sample: cost.SampleFromMB(0.5, 2048, 7300)},
		{Name: "api", Sample: cost.SampleFromMB(30, 512, 7300)},
		{Name: "cache", Sample: cost.SampleFromMB(0.1, 1024, 90000)},
	}

	idle := detector.FindIdle(samples)
	require.Len(t, idle, 2)

	assert.Equal(t, "worker", idle[0].Name)
	assert.Equal(t, "Idle for 2 hours with <1% CPU usage", idle[0].Reason)
	assert.Equal(t, model.Estimate(samples[0].Sample).Rounded(), idle[0].PotentialSavings)

	assert.Equal(t, "cache", idle[1].Name)
	assert.Equal(t, "Idle for 25 hours with <1% CPU usage", idle[1].Reason)
}

func TestIdleDetector_FindIdleEmpty(t *testing.T) {
	detector := cost.NewIdleDetector(cost.NewModel(nil))

	idle := detector.FindIdle(nil)
	assert.NotNil(t, idle)
	assert.Empty(t, idle)
}
