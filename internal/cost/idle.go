package cost

import (
	"fmt"
	"math"
)

// IdleCandidate is a container classified as idle along with what it costs to keep it running
type IdleCandidate struct {
	Name             string   `json:"name"`
	Reason           string   `json:"reason"`
	PotentialSavings Estimate `json:"potential_savings"`

	monthly float64
}

// IdleDetector classifies samples as idle or active using fixed thresholds
type IdleDetector struct {
	model *Model
}

// NewIdleDetector creates an idle detector backed by the given cost model
func NewIdleDetector(model *Model) *IdleDetector {
	return &IdleDetector{model: model}
}

// IsIdle reports whether a sample is below the CPU threshold and has been up
// longer than the uptime threshold. Both comparisons are strict.
func (d *IdleDetector) IsIdle(s Sample) bool {
	cfg := d.model.Config()
	return s.CPUPercent < cfg.IdleCPUPercent && s.UptimeSeconds > cfg.IdleUptimeSeconds
}

// FindIdle returns the idle candidates in input order
func (d *IdleDetector) FindIdle(samples []NamedSample) []IdleCandidate {
	candidates := []IdleCandidate{}

	for _, s := range samples {
		if !d.IsIdle(s.Sample) {
			continue
		}

		est := d.model.Estimate(s.Sample)
		candidates = append(candidates, IdleCandidate{
			Name:             s.Name,
			Reason:           d.reason(s.Sample),
			PotentialSavings: est.Rounded(),
			monthly:          est.Monthly,
		})
	}

	return candidates
}

func (d *IdleDetector) reason(s Sample) string {
	hours := int64(math.Floor(s.UptimeSeconds / 3600))
	return fmt.Sprintf("Idle for %d hours with <%g%% CPU usage", hours, d.model.Config().IdleCPUPercent)
}
