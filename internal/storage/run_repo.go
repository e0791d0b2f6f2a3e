package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"memoflow/internal/models"
	"memoflow/internal/util"
)

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(ctx context.Context, run models.Run) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO runs (run_id, project_id, lot, phase, status)
VALUES ($1::uuid, NULLIF($2,'')::uuid, $3, $4, $5)`,
		run.RunID, run.ProjectID, run.Lot, run.Phase, run.Status)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *RunRepo) UpdateRunStatus(ctx context.Context, runID, status, errText string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE runs SET status=$2, error=NULLIF($3,''), updated_at=NOW() WHERE run_id=$1::uuid`,
		runID, status, errText)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

func (r *RunRepo) GetRun(ctx context.Context, runID string) (models.Run, error) {
	var run models.Run
	err := r.db.Pool.QueryRow(ctx, `
SELECT run_id::text, COALESCE(project_id::text,''), lot, phase, status, COALESCE(error,''), created_at, updated_at
FROM runs WHERE run_id=$1::uuid`, runID).
		Scan(&run.RunID, &run.ProjectID, &run.Lot, &run.Phase, &run.Status, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, fmt.Errorf("run %s: %w", runID, util.ErrNotFound)
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) UpsertItem(ctx context.Context, item models.RunItem) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO run_items (run_id, item, status, error)
VALUES ($1::uuid, $2, $3, NULLIF($4,''))
ON CONFLICT (run_id, item)
DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error, updated_at = NOW()`,
		item.RunID, item.Item, item.Status, item.Error)
	if err != nil {
		return fmt.Errorf("upsert run item: %w", err)
	}
	return nil
}

func (r *RunRepo) ListItems(ctx context.Context, runID string) ([]models.RunItem, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id::text, item, status, COALESCE(error,''), updated_at
FROM run_items WHERE run_id=$1::uuid ORDER BY item`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()
	out := make([]models.RunItem, 0)
	for rows.Next() {
		var it models.RunItem
		if err := rows.Scan(&it.RunID, &it.Item, &it.Status, &it.Error, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run items: %w", err)
	}
	return out, nil
}
