package cost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/dockctl/internal/cost"
)

func TestOptimizer_Optimized(t *testing.T) {
	optimizer := cost.NewOptimizer(cost.NewModel(nil))

	current := cost.SampleFromMB(50, 1000, 5400)
	optimized := optimizer.Optimized(current)

	assert.InDelta(t, 35.0, optimized.CPUPercent, 1e-9)
	assert.InDelta(t, 800.0, optimized.MemoryMB(), 1e-6)
	assert.Equal(t, current.UptimeSeconds, optimized.UptimeSeconds)
}

func TestOptimizer_Estimate(t *testing.T) {
	optimizer := cost.NewOptimizer(cost.NewModel(nil))

	t.Run("reports savings", func(t *testing.T) {
		opt := optimizer.Estimate(cost.SampleFromMB(100, 1024, 0))

		assert.Equal(t, 32.4, opt.CurrentCost.Monthly)
		assert.Greater(t, opt.Savings.Savings.Monthly, 0.0)
		assert.Greater(t, opt.SavingsPercent, 0.0)
		assert.Less(t, opt.SavingsPercent, 100.0)
		assert.Contains(t, opt.Recommendation, "Reduce CPU")
	})

	t.Run("nothing to optimize", func(t *testing.T) {
		opt := optimizer.Estimate(cost.Sample{})

		assert.Equal(t, 0.0, opt.SavingsPercent)
		assert.Contains(t, opt.Recommendation, "nothing to optimize")
	})
}

func TestAnalyzer_Report(t *testing.T) {
	analyzer := cost.NewAnalyzer(nil)

	t.Run("empty batch yields a zero report", func(t *testing.T) {
		report := analyzer.Report(nil)

		assert.Equal(t, 0, report.ContainerCount)
		assert.Equal(t, 0.0, report.TotalCost.Monthly)
		assert.Empty(t, report.IdleContainers)
		assert.Equal(t, 0.0, report.PotentialSavings.Monthly)
		assert.Equal(t, 0.0, report.PotentialSavings.Percentage)
	})

	t.Run("totals and idle savings", func(t *testing.T) {
		samples := []cost.NamedSample{
			{Name: "idle", Sample: cost.SampleFromMB(0, 1024, 7200)},
			{Name: "busy", Sample: cost.SampleFromMB(100, 1024, 7200)},
		}

		report := analyzer.Report(samples)
		require.Len(t, report.IdleContainers, 1)

		assert.Equal(t, 2, report.ContainerCount)
		assert.Equal(t, 36.0, report.TotalCost.Monthly)
		assert.Equal(t, 3.6, report.PotentialSavings.Monthly)
		assert.Equal(t, 10.0, report.PotentialSavings.Percentage)
		assert.Len(t, report.Breakdown, 2)
	})
}
