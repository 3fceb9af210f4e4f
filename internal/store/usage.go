package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// UsageStore handles usage sample operations
type UsageStore struct {
	pool *pgxpool.Pool
}

const upsertUsage = `
	INSERT INTO usage_samples (
		id, container_id, container_name, sample_time, cpu_percent,
		memory_bytes, memory_limit, uptime_seconds, hourly_cost, idle
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
	)
	ON CONFLICT (container_id, sample_time) DO UPDATE
	SET container_name = EXCLUDED.container_name,
		cpu_percent = EXCLUDED.cpu_percent,
		memory_bytes = EXCLUDED.memory_bytes,
		memory_limit = EXCLUDED.memory_limit,
		uptime_seconds = EXCLUDED.uptime_seconds,
		hourly_cost = EXCLUDED.hourly_cost,
		idle = EXCLUDED.idle
`

// Record inserts a usage sample
func (s *UsageStore) Record(ctx context.Context, sample *types.UsageRecord) error {
	if _, err := s.pool.Exec(ctx, upsertUsage, usageArgs(sample)...); err != nil {
		return fmt.Errorf("record usage sample: %w", err)
	}
	return nil
}

// RecordBatch inserts the samples of one sampling pass in a single round trip
func (s *UsageStore) RecordBatch(ctx context.Context, samples []*types.UsageRecord) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(upsertUsage, usageArgs(sample)...)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("record usage samples: %w", err)
	}
	return nil
}

func usageArgs(u *types.UsageRecord) []interface{} {
	return []interface{}{
		u.ID,
		u.ContainerID,
		u.ContainerName,
		u.SampleTime,
		u.CPUPercent,
		u.MemoryBytes,
		u.MemoryLimit,
		u.UptimeSeconds,
		u.HourlyCost,
		u.Idle,
	}
}

// ListSince returns samples taken at or after since, newest first.
// An empty containerID matches every container.
func (s *UsageStore) ListSince(ctx context.Context, containerID string, since time.Time, limit int) ([]*types.UsageRecord, error) {
	query := `
		SELECT id, container_id, container_name, sample_time, cpu_percent,
			memory_bytes, memory_limit, uptime_seconds, hourly_cost, idle
		FROM usage_samples
		WHERE sample_time >= $1 AND ($2 = '' OR container_id = $2)
		ORDER BY sample_time DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, since, containerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage samples: %w", err)
	}
	defer rows.Close()

	samples := []*types.UsageRecord{}
	for rows.Next() {
		var u types.UsageRecord
		err := rows.Scan(
			&u.ID,
			&u.ContainerID,
			&u.ContainerName,
			&u.SampleTime,
			&u.CPUPercent,
			&u.MemoryBytes,
			&u.MemoryLimit,
			&u.UptimeSeconds,
			&u.HourlyCost,
			&u.Idle,
		)
		if err != nil {
			return nil, fmt.Errorf("scan usage sample: %w", err)
		}
		samples = append(samples, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage samples: %w", err)
	}

	return samples, nil
}

// DeleteOlderThan removes samples taken before cutoff
func (s *UsageStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM usage_samples WHERE sample_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old usage samples: %w", err)
	}
	return result.RowsAffected(), nil
}
