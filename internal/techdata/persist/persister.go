package persist

import (
	"context"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

// Persister is the store's view of the system of record for a project's
// technical data. Save must be all-or-nothing: a returned error means the
// remote state is unchanged and the store will roll back its optimistic
// update.
type Persister interface {
	// Load returns the persisted sections for a project. The bool reports
	// whether the project has any persisted data.
	Load(ctx context.Context, projectID string) ([]domain.Section, bool, error)

	// Save writes the full section list for a project. Mode distinguishes
	// merge from replace for backends that patch server-side documents.
	Save(ctx context.Context, projectID string, sections []domain.Section, mode domain.MergeMode) error
}

// Noop satisfies Persister without talking to anything. Used when the data
// API is disabled by configuration; every mutation then succeeds locally.
type Noop struct{}

func (Noop) Load(ctx context.Context, projectID string) ([]domain.Section, bool, error) {
	return nil, false, nil
}

func (Noop) Save(ctx context.Context, projectID string, sections []domain.Section, mode domain.MergeMode) error {
	return nil
}
