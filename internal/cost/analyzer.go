package cost

// PotentialSavings summarizes what stopping every idle container would save
type PotentialSavings struct {
	Monthly    float64 `json:"monthly"`
	Percentage float64 `json:"percentage"`
}

// Report is the cost analysis of a batch of named samples
type Report struct {
	TotalCost        Estimate         `json:"total_cost"`
	ContainerCount   int              `json:"container_count"`
	IdleContainers   []IdleCandidate  `json:"idle_containers"`
	PotentialSavings PotentialSavings `json:"potential_savings"`
	Breakdown        []ItemEstimate   `json:"breakdown"`
}

// Analyzer composes the cost model, idle detector and optimizer
type Analyzer struct {
	model     *Model
	idle      *IdleDetector
	optimizer *Optimizer
}

// NewAnalyzer creates an analyzer. If config is nil, default pricing is used.
func NewAnalyzer(config *Config) *Analyzer {
	model := NewModel(config)
	return &Analyzer{
		model:     model,
		idle:      NewIdleDetector(model),
		optimizer: NewOptimizer(model),
	}
}

// Model returns the underlying cost model
func (a *Analyzer) Model() *Model {
	return a.model
}

// IdleDetector returns the underlying idle detector
func (a *Analyzer) IdleDetector() *IdleDetector {
	return a.idle
}

// Report computes total cost, idle candidates and the savings from stopping
// them. An empty batch yields a zero report.
func (a *Analyzer) Report(samples []NamedSample) *Report {
	plain := make([]Sample, len(samples))
	for i, s := range samples {
		plain[i] = s.Sample
	}

	agg := a.model.Aggregate(plain)
	idle := a.idle.FindIdle(samples)

	var idleMonthly, totalMonthly float64
	for _, c := range idle {
		idleMonthly += c.monthly
	}
	for _, s := range plain {
		totalMonthly += a.model.Estimate(s).Monthly
	}

	return &Report{
		TotalCost:      agg.Total,
		ContainerCount: len(samples),
		IdleContainers: idle,
		PotentialSavings: PotentialSavings{
			Monthly:    round(idleMonthly, 2),
			Percentage: round(percent(idleMonthly, totalMonthly), 1),
		},
		Breakdown: agg.PerItem,
	}
}

// Optimize returns the heuristic right-sizing proposal for a sample
func (a *Analyzer) Optimize(sample Sample) Optimization {
	return a.optimizer.Estimate(sample)
}
