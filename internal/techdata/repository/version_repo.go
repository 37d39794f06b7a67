package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

// VersionRepository archives technical data versions in Postgres. The
// in-memory history in the store stays authoritative for a session; this
// table is the durable record behind it.
type VersionRepository struct {
	db *sql.DB
}

func NewVersionRepository(db *sql.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Append inserts one version row.
func (r *VersionRepository) Append(ctx context.Context, projectID string, v domain.Version) error {
	snapshot, err := json.Marshal(v.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	changes, err := json.Marshal(v.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	const q = `
INSERT INTO technical_data_versions (id, project_id, label, source, created_by, created_at, snapshot, changes, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9);
`
	_, err = r.db.ExecContext(ctx, q,
		v.ID, projectID, v.Label, string(v.Source), v.CreatedBy, v.CreatedAt, snapshot, changes, v.Notes)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

// ListByProject returns a project's archived versions, newest first.
func (r *VersionRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Version, error) {
	const q = `
SELECT id, label, source, created_by, created_at, snapshot, changes, notes
FROM technical_data_versions
WHERE project_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Version, 0, 16)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one archived version.
func (r *VersionRepository) Get(ctx context.Context, projectID, versionID string) (*domain.Version, error) {
	const q = `
SELECT id, label, source, created_by, created_at, snapshot, changes, notes
FROM technical_data_versions
WHERE project_id = $1 AND id = $2;
`
	row := r.db.QueryRowContext(ctx, q, projectID, versionID)
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, err
	}
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*domain.Version, error) {
	var (
		v        domain.Version
		source   string
		snapshot []byte
		changes  []byte
	)
	if err := row.Scan(&v.ID, &v.Label, &source, &v.CreatedBy, &v.CreatedAt, &snapshot, &changes, &v.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan version: %w", err)
	}
	v.Source = domain.VersionSource(source)
	if err := json.Unmarshal(snapshot, &v.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := json.Unmarshal(changes, &v.Changes); err != nil {
		return nil, fmt.Errorf("unmarshal changes: %w", err)
	}
	return &v, nil
}
