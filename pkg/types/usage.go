package types

import "time"

// UsageRecord is a persisted point-in-time usage sample for one container
type UsageRecord struct {
	ID            string    `db:"id" json:"id"`
	ContainerID   string    `db:"container_id" json:"container_id"`
	ContainerName string    `db:"container_name" json:"container_name"`
	SampleTime    time.Time `db:"sample_time" json:"sample_time"`
	CPUPercent    float64   `db:"cpu_percent" json:"cpu_percent"`
	MemoryBytes   int64     `db:"memory_bytes" json:"memory_bytes"`
	MemoryLimit   int64     `db:"memory_limit" json:"memory_limit"`
	UptimeSeconds float64   `db:"uptime_seconds" json:"uptime_seconds"`
	HourlyCost    float64   `db:"hourly_cost" json:"hourly_cost"`
	Idle          bool      `db:"idle" json:"idle"`
}

// IdempotencyKey represents a cached response for an idempotent bulk request
type IdempotencyKey struct {
	ID                 string    `db:"id"`
	Key                string    `db:"key"`
	RequestHash        string    `db:"request_hash"`
	ResponseStatusCode *int      `db:"response_status_code"`
	ResponseBody       []byte    `db:"response_body"`
	CreatedAt          time.Time `db:"created_at"`
	ExpiresAt          time.Time `db:"expires_at"`
}
