package storage

import (
	"context"
	"fmt"

	"memoflow/internal/models"
)

type LLMAuditRepo struct {
	db *DB
}

func NewLLMAuditRepo(db *DB) *LLMAuditRepo {
	return &LLMAuditRepo{db: db}
}

func (r *LLMAuditRepo) Insert(ctx context.Context, rec models.LLMCall) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO llm_calls (call_id, run_id, phase, provider_name, model, latency_ms, error_class)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), NULLIF($2,'')::uuid, $3, $4, $5, $6, NULLIF($7,''))`,
		rec.CallID, rec.RunID, rec.Phase, rec.Provider, rec.Model, rec.LatencyMS, rec.ErrorClass)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}
