package cost

import "math"

const (
	bytesPerGiB = 1 << 30
	bytesPerMiB = 1 << 20

	hoursPerDay  = 24
	daysPerMonth = 30
)

// Sample is a normalized point-in-time measurement of one container
type Sample struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryBytes   uint64  `json:"memory_bytes"`
	MemoryLimit   uint64  `json:"memory_limit,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// SampleFromMB builds a sample from a memory figure expressed in MiB
func SampleFromMB(cpuPercent, memoryMB, uptimeSeconds float64) Sample {
	return Sample{
		CPUPercent:    cpuPercent,
		MemoryBytes:   uint64(sanitize(memoryMB) * bytesPerMiB),
		UptimeSeconds: uptimeSeconds,
	}
}

// MemoryMB returns resident memory in MiB
func (s Sample) MemoryMB() float64 {
	return float64(s.MemoryBytes) / bytesPerMiB
}

// MemoryPercent returns memory usage as a share of the limit, or 0 when no limit is known
func (s Sample) MemoryPercent() float64 {
	if s.MemoryLimit == 0 {
		return 0
	}
	return float64(s.MemoryBytes) / float64(s.MemoryLimit) * 100
}

// NamedSample is a sample tagged with the container it was taken from
type NamedSample struct {
	Name string `json:"name"`
	Sample
}

// Estimate is an hourly/daily/monthly cost projection
type Estimate struct {
	Hourly   float64 `json:"hourly"`
	Daily    float64 `json:"daily"`
	Monthly  float64 `json:"monthly"`
	Currency string  `json:"currency"`
}

// Rounded returns the estimate rounded for presentation. Each field is
// rounded once from its full-precision value.
func (e Estimate) Rounded() Estimate {
	return Estimate{
		Hourly:   round(e.Hourly, 4),
		Daily:    round(e.Daily, 2),
		Monthly:  round(e.Monthly, 2),
		Currency: e.Currency,
	}
}

// Sub returns the field-wise difference e - other
func (e Estimate) Sub(other Estimate) Estimate {
	return Estimate{
		Hourly:   e.Hourly - other.Hourly,
		Daily:    e.Daily - other.Daily,
		Monthly:  e.Monthly - other.Monthly,
		Currency: e.Currency,
	}
}

// Add returns the field-wise sum e + other
func (e Estimate) Add(other Estimate) Estimate {
	return Estimate{
		Hourly:   e.Hourly + other.Hourly,
		Daily:    e.Daily + other.Daily,
		Monthly:  e.Monthly + other.Monthly,
		Currency: e.Currency,
	}
}

// ItemEstimate is the estimate for the sample at Index in an aggregated batch
type ItemEstimate struct {
	Index int      `json:"index"`
	Cost  Estimate `json:"cost"`
}

// Aggregate is the total cost of a batch of samples
type Aggregate struct {
	Total   Estimate       `json:"total"`
	PerItem []ItemEstimate `json:"breakdown"`
}

// Savings compares a current and a hypothetical optimized sample
type Savings struct {
	CurrentCost    Estimate `json:"current_cost"`
	OptimizedCost  Estimate `json:"optimized_cost"`
	Savings        Estimate `json:"savings"`
	SavingsPercent float64  `json:"savings_percent"`
}

// Model maps usage samples to cost estimates. It holds no mutable state and
// is safe for concurrent use.
type Model struct {
	config *Config
}

// NewModel creates a cost model. If config is nil, default pricing is used.
func NewModel(config *Config) *Model {
	if config == nil {
		config = DefaultConfig()
	}
	return &Model{config: config}
}

// Config returns the pricing configuration
func (m *Model) Config() *Config {
	return m.config
}

// Estimate returns the unrounded cost projection for a sample.
// Negative and non-finite sample values are treated as zero.
func (m *Model) Estimate(s Sample) Estimate {
	cores := sanitize(s.CPUPercent) / 100
	memoryGiB := float64(s.MemoryBytes) / bytesPerGiB

	hourly := cores*m.config.CPURate + memoryGiB*m.config.MemoryRate
	daily := hourly * hoursPerDay
	monthly := daily * daysPerMonth

	return Estimate{
		Hourly:   hourly,
		Daily:    daily,
		Monthly:  monthly,
		Currency: m.config.Currency,
	}
}

// Aggregate estimates every sample and sums the unrounded per-item values.
// Only the total is rounded; per-item estimates are rounded for presentation.
func (m *Model) Aggregate(samples []Sample) Aggregate {
	total := Estimate{Currency: m.config.Currency}
	perItem := make([]ItemEstimate, len(samples))

	for i, s := range samples {
		est := m.Estimate(s)
		total = total.Add(est)
		perItem[i] = ItemEstimate{Index: i, Cost: est.Rounded()}
	}

	return Aggregate{
		Total:   total.Rounded(),
		PerItem: perItem,
	}
}

// Savings compares current against optimized usage. When the current monthly
// cost is zero the percentage is reported as 0.
func (m *Model) Savings(current, optimized Sample) Savings {
	currentCost := m.Estimate(current)
	optimizedCost := m.Estimate(optimized)
	savings := currentCost.Sub(optimizedCost)

	return Savings{
		CurrentCost:    currentCost.Rounded(),
		OptimizedCost:  optimizedCost.Rounded(),
		Savings:        savings.Rounded(),
		SavingsPercent: round(percent(savings.Monthly, currentCost.Monthly), 1),
	}
}

// percent returns part/whole*100, or 0 when the ratio is undefined
func percent(part, whole float64) float64 {
	if whole == 0 || math.IsNaN(whole) || math.IsInf(whole, 0) {
		return 0
	}
	return sanitizeSigned(part / whole * 100)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// sanitize clamps negative and non-finite values to zero
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func sanitizeSigned(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
