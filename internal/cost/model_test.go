package cost_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/dockctl/internal/cost"
)

func TestModel_Estimate(t *testing.T) {
	model := cost.NewModel(nil)

	t.Run("one full core and one GiB", func(t *testing.T) {
		est := model.Estimate(cost.SampleFromMB(100, 1024, 0)).Rounded()

		assert.Equal(t, 0.045, est.Hourly)
		assert.Equal(t, 1.08, est.Daily)
		assert.Equal(t, 32.4, est.Monthly)
		assert.Equal(t, "USD", est.Currency)
	})

	t.Run("derives daily and monthly from hourly", func(t *testing.T) {
		est := model.Estimate(cost.Sample{CPUPercent: 37.3, MemoryBytes: 734003200})

		assert.InDelta(t, est.Hourly*24, est.Daily, 1e-12)
		assert.InDelta(t, est.Daily*30, est.Monthly, 1e-12)
	})

	t.Run("is pure", func(t *testing.T) {
		s := cost.Sample{CPUPercent: 12.5, MemoryBytes: 256 << 20, UptimeSeconds: 42}
		assert.Equal(t, model.Estimate(s), model.Estimate(s))
	})

	t.Run("clamps negative and non-finite cpu", func(t *testing.T) {
		for _, cpu := range []float64{-5, math.NaN(), math.Inf(1)} {
			est := model.Estimate(cost.Sample{CPUPercent: cpu})
			assert.Equal(t, 0.0, est.Hourly)
		}
	})

	t.Run("rounding is not chained", func(t *testing.T) {
		// hourly 0.00004166.. rounds to 0.0 at 4 dp, but monthly is computed
		// from the unrounded hourly value
		est := model.Estimate(cost.Sample{CPUPercent: 0.10416666}).Rounded()
		assert.Equal(t, 0.0, est.Hourly)
		assert.Equal(t, 0.03, est.Monthly)
	})
}

func TestModel_CustomRates(t *testing.T) {
	cfg := cost.DefaultConfig()
	cfg.CPURate = 0.08
	cfg.MemoryRate = 0.01
	cfg.Currency = "EUR"
	model := cost.NewModel(cfg)

	est := model.Estimate(cost.SampleFromMB(50, 2048, 0)).Rounded()
	assert.Equal(t, 0.06, est.Hourly)
	assert.Equal(t, "EUR", est.Currency)
}

func TestModel_Aggregate(t *testing.T) {
	model := cost.NewModel(nil)

	s1 := cost.Sample{CPUPercent: 13.37, MemoryBytes: 123456789}
	s2 := cost.Sample{CPUPercent: 71.1, MemoryBytes: 987654321}

	t.Run("is additive", func(t *testing.T) {
		sum := model.Estimate(s1).Add(model.Estimate(s2))
		expected := model.Estimate(s1).Monthly + model.Estimate(s2).Monthly

		assert.InDelta(t, expected, sum.Monthly, 1e-6)

		agg := model.Aggregate([]cost.Sample{s1, s2})
		assert.InDelta(t, expected, agg.Total.Monthly, 0.005)
	})

	t.Run("reports one indexed item per sample", func(t *testing.T) {
		agg := model.Aggregate([]cost.Sample{s1, s2})
		require.Len(t, agg.PerItem, 2)
		assert.Equal(t, 0, agg.PerItem[0].Index)
		assert.Equal(t, 1, agg.PerItem[1].Index)
		assert.Equal(t, model.Estimate(s2).Rounded(), agg.PerItem[1].Cost)
	})

	t.Run("rounds the unrounded sum once", func(t *testing.T) {
		// each item is 0.004 monthly: summing rounded items would give 0.00
		tiny := cost.Sample{CPUPercent: 0.004 / 0.04 / 720 * 100}
		agg := model.Aggregate([]cost.Sample{tiny, tiny, tiny})

		assert.Equal(t, 0.0, agg.PerItem[0].Cost.Monthly)
		assert.Equal(t, 0.01, agg.Total.Monthly)
	})

	t.Run("empty batch", func(t *testing.T) {
		agg := model.Aggregate(nil)
		assert.Empty(t, agg.PerItem)
		assert.Equal(t, 0.0, agg.Total.Monthly)
		assert.Equal(t, "USD", agg.Total.Currency)
	})
}

func TestModel_Savings(t *testing.T) {
	model := cost.NewModel(nil)

	t.Run("computes field-wise savings", func(t *testing.T) {
		current := cost.SampleFromMB(100, 1024, 0)
		optimized := cost.SampleFromMB(50, 512, 0)

		s := model.Savings(current, optimized)
		assert.Equal(t, 32.4, s.CurrentCost.Monthly)
		assert.Equal(t, 16.2, s.OptimizedCost.Monthly)
		assert.Equal(t, 16.2, s.Savings.Monthly)
		assert.Equal(t, 50.0, s.SavingsPercent)
	})

	t.Run("zero current cost reports zero percent", func(t *testing.T) {
		s := model.Savings(cost.Sample{}, cost.Sample{})
		assert.Equal(t, 0.0, s.SavingsPercent)
		assert.False(t, math.IsNaN(s.SavingsPercent))
	})
}
