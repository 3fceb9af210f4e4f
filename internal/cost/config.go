package cost

// Config holds pricing rates and heuristic thresholds for cost estimation
type Config struct {
	Currency string `yaml:"currency" env:"CURRENCY" validate:"required,len=3"`

	// CPURate is the price of one fully used core for one hour
	CPURate float64 `yaml:"cpu_rate" env:"CPU_RATE" validate:"gte=0"`
	// MemoryRate is the price of one GiB of resident memory for one hour
	MemoryRate float64 `yaml:"memory_rate" env:"MEMORY_RATE" validate:"gte=0"`

	IdleCPUPercent    float64 `yaml:"idle_cpu_percent" env:"IDLE_CPU_PERCENT" validate:"gt=0"`
	IdleUptimeSeconds float64 `yaml:"idle_uptime_seconds" env:"IDLE_UPTIME_SECONDS" validate:"gte=0"`

	CPUReduction    float64 `yaml:"cpu_reduction" env:"CPU_REDUCTION" validate:"gt=0,lte=1"`
	MemoryReduction float64 `yaml:"memory_reduction" env:"MEMORY_REDUCTION" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the default pricing configuration
func DefaultConfig() *Config {
	return &Config{
		Currency:          "USD",
		CPURate:           0.04,  // per core-hour
		MemoryRate:        0.005, // per GiB-hour
		IdleCPUPercent:    1.0,
		IdleUptimeSeconds: 3600,
		CPUReduction:      0.7,
		MemoryReduction:   0.8,
	}
}
