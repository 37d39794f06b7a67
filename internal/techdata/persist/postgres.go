package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

// PostgresStore persists technical data as a JSONB document per project.
// Used in deployments where this service owns its data instead of writing
// through the external data API.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, projectID string) ([]domain.Section, bool, error) {
	const q = `
SELECT sections
FROM technical_data
WHERE project_id = $1;
`
	var raw []byte
	err := s.db.QueryRowContext(ctx, q, projectID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load technical data: %w", err)
	}

	var sections []domain.Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, false, fmt.Errorf("decode technical data: %w", err)
	}
	return sections, true, nil
}

// Save upserts the full section document. The store always hands us the
// complete new state, so merge and replace land identically here.
func (s *PostgresStore) Save(ctx context.Context, projectID string, sections []domain.Section, mode domain.MergeMode) error {
	raw, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("marshal technical data: %w", err)
	}

	const q = `
INSERT INTO technical_data (project_id, sections, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (project_id)
DO UPDATE SET sections = EXCLUDED.sections, updated_at = now();
`
	if _, err := s.db.ExecContext(ctx, q, projectID, raw); err != nil {
		return fmt.Errorf("save technical data: %w", err)
	}
	return nil
}
