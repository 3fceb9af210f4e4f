// Package host reports the capacity of the machine running the Docker daemon
// when the service is co-located with it.
package host

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// Capacity is a point-in-time snapshot of host resources
type Capacity struct {
	Hostname          string  `json:"hostname"`
	OS                string  `json:"os"`
	Platform          string  `json:"platform"`
	UptimeSeconds     uint64  `json:"uptime_seconds"`
	LogicalCores      int     `json:"logical_cores"`
	MemoryTotal       uint64  `json:"memory_total"`
	MemoryUsed        uint64  `json:"memory_used"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	Load1             float64 `json:"load1"`
	Load5             float64 `json:"load5"`
	Load15            float64 `json:"load15"`
}

// Inspector gathers host capacity with gopsutil
type Inspector struct {
	logger *zap.Logger
}

// NewInspector creates a host inspector
func NewInspector(logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{logger: logger}
}

// Snapshot collects the current capacity. Core count and memory are required;
// host info and load average are best effort since not every platform has them.
func (i *Inspector) Snapshot(ctx context.Context) (*Capacity, error) {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("count cpus: %w", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read memory: %w", err)
	}

	c := &Capacity{
		LogicalCores:      cores,
		MemoryTotal:       vm.Total,
		MemoryUsed:        vm.Used,
		MemoryUsedPercent: vm.UsedPercent,
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		c.Hostname = info.Hostname
		c.OS = info.OS
		c.Platform = info.Platform
		c.UptimeSeconds = info.Uptime
	} else {
		i.logger.Debug("host info unavailable", zap.Error(err))
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		c.Load1 = avg.Load1
		c.Load5 = avg.Load5
		c.Load15 = avg.Load15
	} else {
		i.logger.Debug("load average unavailable", zap.Error(err))
	}

	return c, nil
}
