package cost

import "fmt"

// Optimization is a heuristic right-sizing proposal for one container
type Optimization struct {
	Recommendation string `json:"recommendation"`
	Current        Sample `json:"current"`
	Optimized      Sample `json:"optimized"`
	Savings
}

// Optimizer derives a hypothetical optimized sample by applying fixed
// reduction ratios and prices both through the cost model
type Optimizer struct {
	model *Model
}

// NewOptimizer creates an optimizer backed by the given cost model
func NewOptimizer(model *Model) *Optimizer {
	return &Optimizer{model: model}
}

// Optimized applies the reduction ratios to CPU and memory. Uptime and the
// memory limit are left unchanged.
func (o *Optimizer) Optimized(current Sample) Sample {
	cfg := o.model.Config()

	optimized := current
	optimized.CPUPercent = sanitize(current.CPUPercent) * cfg.CPUReduction
	optimized.MemoryBytes = uint64(float64(current.MemoryBytes) * cfg.MemoryReduction)

	return optimized
}

// Estimate prices the current sample against its optimized counterpart
func (o *Optimizer) Estimate(current Sample) Optimization {
	optimized := o.Optimized(current)
	savings := o.model.Savings(current, optimized)

	return Optimization{
		Recommendation: o.recommendation(current, optimized, savings),
		Current:        current,
		Optimized:      optimized,
		Savings:        savings,
	}
}

func (o *Optimizer) recommendation(current, optimized Sample, s Savings) string {
	if s.CurrentCost.Monthly == 0 {
		return "No measurable resource usage; nothing to optimize"
	}

	return fmt.Sprintf(
		"Reduce CPU from %.2f%% to %.2f%% and memory from %.2f MB to %.2f MB to save %.2f %s/month (%.1f%%)",
		current.CPUPercent, optimized.CPUPercent,
		current.MemoryMB(), optimized.MemoryMB(),
		s.Savings.Monthly, s.Savings.Currency, s.SavingsPercent,
	)
}
