package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// ActionStore handles the append-only container action log
type ActionStore struct {
	pool *pgxpool.Pool
}

const insertAction = `
	INSERT INTO action_records (
		id, operation_id, action, resource_type, resource_id,
		success, error_message, actor, metadata, executed_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
	)
`

// Log creates an immutable action record
func (s *ActionStore) Log(ctx context.Context, record *types.ActionRecord) error {
	_, err := s.pool.Exec(ctx, insertAction, actionArgs(record)...)
	if err != nil {
		return fmt.Errorf("insert action record: %w", err)
	}
	return nil
}

// LogBatch inserts the records of one bulk operation in a single round trip
func (s *ActionStore) LogBatch(ctx context.Context, records []*types.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(insertAction, actionArgs(record)...)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert action records: %w", err)
	}
	return nil
}

func actionArgs(r *types.ActionRecord) []interface{} {
	executedAt := r.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}
	return []interface{}{
		r.ID,
		r.OperationID,
		r.Action,
		r.ResourceType,
		r.ResourceID,
		r.Success,
		r.ErrorMessage,
		r.Actor,
		r.Metadata,
		executedAt,
	}
}

// ActionFilters contains filter options for listing action records
type ActionFilters struct {
	ResourceID  *string
	OperationID *string
	Action      *types.ActionType
	Success     *bool
	Limit       int
	Offset      int
}

// List retrieves action records, newest first, with optional filtering
func (s *ActionStore) List(ctx context.Context, filters ActionFilters) ([]*types.ActionRecord, int, error) {
	query := `
		SELECT id, operation_id, action, resource_type, resource_id,
			success, error_message, actor, metadata, executed_at
		FROM action_records
		WHERE 1=1
	`
	countQuery := "SELECT COUNT(*) FROM action_records WHERE 1=1"

	args := []interface{}{}
	argPos := 1

	if filters.ResourceID != nil {
		query += fmt.Sprintf(" AND resource_id = $%d", argPos)
		countQuery += fmt.Sprintf(" AND resource_id = $%d", argPos)
		args = append(args, *filters.ResourceID)
		argPos++
	}

	if filters.OperationID != nil {
		query += fmt.Sprintf(" AND operation_id = $%d", argPos)
		countQuery += fmt.Sprintf(" AND operation_id = $%d", argPos)
		args = append(args, *filters.OperationID)
		argPos++
	}

	if filters.Action != nil {
		query += fmt.Sprintf(" AND action = $%d", argPos)
		countQuery += fmt.Sprintf(" AND action = $%d", argPos)
		args = append(args, *filters.Action)
		argPos++
	}

	if filters.Success != nil {
		query += fmt.Sprintf(" AND success = $%d", argPos)
		countQuery += fmt.Sprintf(" AND success = $%d", argPos)
		args = append(args, *filters.Success)
		argPos++
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count action records: %w", err)
	}

	query += " ORDER BY executed_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query action records: %w", err)
	}
	defer rows.Close()

	records := []*types.ActionRecord{}
	for rows.Next() {
		var r types.ActionRecord
		err := rows.Scan(
			&r.ID,
			&r.OperationID,
			&r.Action,
			&r.ResourceType,
			&r.ResourceID,
			&r.Success,
			&r.ErrorMessage,
			&r.Actor,
			&r.Metadata,
			&r.ExecutedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan action record: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate action records: %w", err)
	}

	return records, total, nil
}

// DeleteOlderThan removes action records executed before cutoff
func (s *ActionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM action_records WHERE executed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old action records: %w", err)
	}
	return result.RowsAffected(), nil
}
