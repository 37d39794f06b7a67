package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hydroplan-hq/techsheet-backend/internal/logging"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/cache"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/diff"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/persist"
)

// VersionArchiver durably records versions outside the in-memory history
// and serves them back when neither memory nor cache has them. Archive
// failures are logged and do not fail the mutation.
type VersionArchiver interface {
	Append(ctx context.Context, projectID string, v domain.Version) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Version, error)
}

// Store owns every project's live sections and version history and is the
// only way callers mutate them. Each mutation runs the same protocol:
// clone the live sections, apply the change optimistically, persist, and
// on persistence failure restore the clone and record the error. Mutations
// against the same project are serialized by a per-project lock, so a
// second call cannot interleave with the first's persistence round-trip.
type Store struct {
	mu       sync.Mutex
	projects map[string]*projectState

	persister persist.Persister
	cache     *cache.Cache
	archive   VersionArchiver
	differ    *diff.Engine
}

type projectState struct {
	mu       sync.Mutex
	loaded   bool
	sections []domain.Section
	versions []domain.Version // newest first
	lastErr  string
}

// Option configures optional collaborators on a Store.
type Option func(*Store)

// WithCache attaches the redis cache used as load fallback and kept in
// step after every successful mutation.
func WithCache(c *cache.Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithArchiver attaches a durable version archive.
func WithArchiver(a VersionArchiver) Option {
	return func(s *Store) { s.archive = a }
}

// WithDiffEngine overrides the default strict-equality diff engine.
func WithDiffEngine(e *diff.Engine) Option {
	return func(s *Store) { s.differ = e }
}

func New(p persist.Persister, opts ...Option) *Store {
	s := &Store{
		projects:  make(map[string]*projectState),
		persister: p,
		differ:    diff.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type actorKey struct{}

// WithActor records who is performing mutations; it ends up in
// Version.CreatedBy.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok {
		return a
	}
	return ""
}

func (s *Store) state(projectID string) *projectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.projects[projectID]
	if !ok {
		st = &projectState{}
		s.projects[projectID] = st
	}
	return st
}

// ensureLoaded populates a project's state on first touch: persisted data
// wins, the cache is the fallback, the built-in template is the default.
// Caller must hold st.mu.
func (s *Store) ensureLoaded(ctx context.Context, projectID string, st *projectState) error {
	if st.loaded {
		return nil
	}

	logger := logging.NewLogger(ctx)

	sections, ok, err := s.persister.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load technical data: %w", err)
	}
	if !ok && s.cache != nil {
		sections, ok, err = s.cache.LoadSections(ctx, projectID)
		if err != nil {
			logger.LogWarnf("techdata_load", "cache read failed for project_id=%s: %v", projectID, err)
			ok = false
		}
	}
	if !ok {
		sections = domain.DefaultTemplate()
	}

	// Version history: the cache is the fast path, the durable archive the
	// fallback so history survives restarts and cache expiry.
	if s.cache != nil {
		if versions, vok, verr := s.cache.LoadVersions(ctx, projectID); verr == nil && vok {
			st.versions = versions
		}
	}
	if st.versions == nil && s.archive != nil {
		versions, verr := s.archive.ListByProject(ctx, projectID)
		if verr != nil {
			logger.LogWarnf("techdata_load", "version archive read failed for project_id=%s: %v", projectID, verr)
		} else {
			st.versions = versions
		}
	}

	st.sections = sections
	st.loaded = true
	return nil
}

// mutate runs one façade operation end to end. apply receives a deep copy
// of the live sections and returns the new section list; it must not keep
// references to its argument.
func (s *Store) mutate(ctx context.Context, projectID, label string, source domain.VersionSource, mode domain.MergeMode, apply func(sections []domain.Section) ([]domain.Section, error)) error {
	st := s.state(projectID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.ensureLoaded(ctx, projectID, st); err != nil {
		return err
	}

	rollback := domain.CloneSections(st.sections)

	next, err := apply(domain.CloneSections(st.sections))
	if err != nil {
		return err
	}

	// Optimistic update: the new value is live before the persist round-trip.
	st.sections = next
	st.lastErr = ""

	if err := s.persister.Save(ctx, projectID, next, mode); err != nil {
		st.sections = rollback
		st.lastErr = err.Error()
		return fmt.Errorf("persist %s: %w", label, err)
	}

	version := domain.Version{
		ID:        uuid.New().String(),
		Label:     label,
		CreatedAt: time.Now().UTC(),
		CreatedBy: actorFrom(ctx),
		Source:    source,
		Snapshot:  domain.CloneSections(next),
		Changes:   s.differ.Changes(rollback, next, source),
	}
	st.versions = append([]domain.Version{version}, st.versions...)

	logger := logging.NewLogger(ctx)
	if s.cache != nil {
		if cerr := s.cache.SaveState(ctx, projectID, st.sections, st.versions); cerr != nil {
			logger.LogWarnf("techdata_mutate", "cache write failed for project_id=%s: %v", projectID, cerr)
		}
	}
	if s.archive != nil {
		if aerr := s.archive.Append(ctx, projectID, version); aerr != nil {
			logger.LogWarnf("techdata_mutate", "version archive failed for project_id=%s: %v", projectID, aerr)
		}
	}

	return nil
}

// Sections returns a deep copy of the live sections for a project, loading
// them on first access.
func (s *Store) Sections(ctx context.Context, projectID string) ([]domain.Section, error) {
	st := s.state(projectID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.ensureLoaded(ctx, projectID, st); err != nil {
		return nil, err
	}
	return domain.CloneSections(st.sections), nil
}

// Versions returns the project's version history, newest first.
func (s *Store) Versions(ctx context.Context, projectID string) ([]domain.Version, error) {
	st := s.state(projectID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.ensureLoaded(ctx, projectID, st); err != nil {
		return nil, err
	}
	out := make([]domain.Version, len(st.versions))
	copy(out, st.versions)
	return out, nil
}

// Version returns one version by id.
func (s *Store) Version(ctx context.Context, projectID, versionID string) (*domain.Version, error) {
	st := s.state(projectID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.ensureLoaded(ctx, projectID, st); err != nil {
		return nil, err
	}
	for i := range st.versions {
		if st.versions[i].ID == versionID {
			v := st.versions[i]
			return &v, nil
		}
	}
	return nil, domain.ErrVersionNotFound
}

// LastError returns the persistence error left by the most recent failed
// mutation, or "" when the project is in a confirmed state.
func (s *Store) LastError(projectID string) string {
	st := s.state(projectID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastErr
}
