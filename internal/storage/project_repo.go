package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"memoflow/internal/models"
	"memoflow/internal/util"
)

type ProjectRepo struct {
	db *DB
}

func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) UpsertProject(ctx context.Context, p models.Project) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO projects (project_id, name, folder_id)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3)
ON CONFLICT (name)
DO UPDATE SET folder_id = EXCLUDED.folder_id`,
		p.ProjectID, p.Name, p.FolderID)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) GetProjectByName(ctx context.Context, name string) (models.Project, error) {
	var p models.Project
	err := r.db.Pool.QueryRow(ctx, `
SELECT project_id::text, name, folder_id, created_at
FROM projects WHERE name=$1`, name).
		Scan(&p.ProjectID, &p.Name, &p.FolderID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %q: %w", name, util.ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepo) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT project_id::text, name, folder_id, created_at
FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	out := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.FolderID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}
