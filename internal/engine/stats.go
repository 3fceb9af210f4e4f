package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// statsSnapshot is the part of the daemon's stats document the usage
// derivation reads
type statsSnapshot struct {
	CPUStats    cpuStats `json:"cpu_stats"`
	PreCPUStats cpuStats `json:"precpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
		Limit uint64 `json:"limit"`
	} `json:"memory_stats"`
}

type cpuStats struct {
	CPUUsage struct {
		TotalUsage  uint64   `json:"total_usage"`
		PercpuUsage []uint64 `json:"percpu_usage"`
	} `json:"cpu_usage"`
	SystemUsage uint64 `json:"system_cpu_usage"`
	OnlineCPUs  uint32 `json:"online_cpus"`
}

// cpuPercent computes (cpuDelta/systemDelta) * onlineCPUs * 100.
// A non-positive delta on either side yields 0.
func (s *statsSnapshot) cpuPercent() float64 {
	if s.CPUStats.CPUUsage.TotalUsage <= s.PreCPUStats.CPUUsage.TotalUsage {
		return 0
	}
	if s.CPUStats.SystemUsage <= s.PreCPUStats.SystemUsage {
		return 0
	}

	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage - s.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(s.CPUStats.SystemUsage - s.PreCPUStats.SystemUsage)

	online := float64(s.CPUStats.OnlineCPUs)
	if online == 0 {
		online = float64(len(s.CPUStats.CPUUsage.PercpuUsage))
	}
	if online == 0 {
		online = 1
	}

	return cpuDelta / systemDelta * online * 100
}

// memoryLimit returns the reported limit, or 1 when the daemon reports none
func (s *statsSnapshot) memoryLimit() uint64 {
	if s.MemoryStats.Limit == 0 {
		return 1
	}
	return s.MemoryStats.Limit
}

// DeriveUsage decodes a raw stats document and computes the usage figures.
// Uptime is measured from created to now; a zero created time yields 0.
func DeriveUsage(raw []byte, created, now time.Time) (*Usage, error) {
	var snap statsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode container stats: %w", err)
	}

	var uptime float64
	if !created.IsZero() && now.After(created) {
		uptime = now.Sub(created).Seconds()
	}

	return &Usage{
		CPUPercent:    snap.cpuPercent(),
		MemoryBytes:   snap.MemoryStats.Usage,
		MemoryLimit:   snap.memoryLimit(),
		UptimeSeconds: uptime,
	}, nil
}
