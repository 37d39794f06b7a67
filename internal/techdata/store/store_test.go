package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/store"
)

// fakePersister records saves and can be told to fail the next one.
type fakePersister struct {
	mu        sync.Mutex
	data      map[string][]domain.Section
	failSave  error
	saveCalls int
}

func newFakePersister() *fakePersister {
	return &fakePersister{data: map[string][]domain.Section{}}
}

func (p *fakePersister) Load(ctx context.Context, projectID string) ([]domain.Section, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sections, ok := p.data[projectID]
	return domain.CloneSections(sections), ok, nil
}

func (p *fakePersister) Save(ctx context.Context, projectID string, sections []domain.Section, mode domain.MergeMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveCalls++
	if p.failSave != nil {
		err := p.failSave
		p.failSave = nil
		return err
	}
	p.data[projectID] = domain.CloneSections(sections)
	return nil
}

func fieldValue(t *testing.T, sections []domain.Section, sectionID, fieldID string) any {
	t.Helper()
	sec := domain.FindSection(sections, sectionID)
	require.NotNil(t, sec)
	f := sec.FindField(fieldID)
	require.NotNil(t, f)
	return f.Value
}

func TestUpdateFieldScenario(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	s := store.New(p)

	t.Run("first update records one version", func(t *testing.T) {
		err := s.UpdateField(ctx, "p1", "general", "flow", 50.0, "L/s", domain.FieldSourceManual)
		require.NoError(t, err)

		sections, err := s.Sections(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 50.0, fieldValue(t, sections, "general", "flow"))
		assert.Equal(t, "L/s", domain.FindSection(sections, "general").FindField("flow").Unit)

		versions, err := s.Versions(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, versions, 1)
		require.Len(t, versions[0].Changes, 1)
		assert.Contains(t, []domain.ChangeType{domain.ChangeAdded, domain.ChangeModified}, versions[0].Changes[0].ChangeType)
	})

	t.Run("second update diffs old against new", func(t *testing.T) {
		err := s.UpdateField(ctx, "p1", "general", "flow", 75.0, "", domain.FieldSourceManual)
		require.NoError(t, err)

		versions, err := s.Versions(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, versions, 2)

		// Newest first.
		ch := versions[0].Changes
		require.Len(t, ch, 1)
		assert.Equal(t, domain.ChangeModified, ch[0].ChangeType)
		assert.Equal(t, 50.0, ch[0].OldValue)
		assert.Equal(t, 75.0, ch[0].NewValue)
	})

	t.Run("persistence failure rolls back and records error", func(t *testing.T) {
		p.failSave = errors.New("upstream down")

		before, err := s.Sections(ctx, "p1")
		require.NoError(t, err)

		err = s.UpdateField(ctx, "p1", "general", "flow", 99.0, "", domain.FieldSourceManual)
		require.Error(t, err)

		after, err := s.Sections(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(before, after))
		assert.Equal(t, 75.0, fieldValue(t, after, "general", "flow"))
		assert.NotEmpty(t, s.LastError("p1"))

		versions, err := s.Versions(ctx, "p1")
		require.NoError(t, err)
		assert.Len(t, versions, 2, "no version for a failed mutation")
	})

	t.Run("next successful mutation clears the error", func(t *testing.T) {
		err := s.UpdateField(ctx, "p1", "general", "flow", 80.0, "", domain.FieldSourceManual)
		require.NoError(t, err)
		assert.Empty(t, s.LastError("p1"))
	})
}

func TestVersionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := store.New(newFakePersister())

	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 7.0, "", domain.FieldSourceManual))
	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 7.5, "", domain.FieldSourceManual))
	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 8.0, "", domain.FieldSourceManual))

	versions, err := s.Versions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i := 1; i < len(versions); i++ {
		assert.False(t, versions[i-1].CreatedAt.Before(versions[i].CreatedAt))
	}
	assert.Equal(t, 8.0, versions[0].Changes[0].NewValue)
}

func TestSectionAndFieldOperations(t *testing.T) {
	ctx := context.Background()
	s := store.New(newFakePersister())

	t.Run("add custom section", func(t *testing.T) {
		require.NoError(t, s.AddCustomSection(ctx, "p1", "pilot", "Planta piloto", ""))
		sections, err := s.Sections(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, domain.FindSection(sections, "pilot"))
	})

	t.Run("duplicate section id rejected", func(t *testing.T) {
		err := s.AddCustomSection(ctx, "p1", "pilot", "Otra", "")
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
	})

	t.Run("add and duplicate field", func(t *testing.T) {
		f := domain.Field{ID: "sampling", Label: "Punto de muestreo", Type: domain.FieldTypeText, Value: "entrada"}
		require.NoError(t, s.AddField(ctx, "p1", "pilot", f))
		require.NoError(t, s.DuplicateField(ctx, "p1", "pilot", "sampling"))

		sections, err := s.Sections(ctx, "p1")
		require.NoError(t, err)
		sec := domain.FindSection(sections, "pilot")
		dup := sec.FindField("sampling-copy")
		require.NotNil(t, dup)
		assert.Equal(t, "Punto de muestreo (copia)", dup.Label)
		assert.Equal(t, "entrada", dup.Value)
	})

	t.Run("rename field and set notes", func(t *testing.T) {
		require.NoError(t, s.UpdateFieldLabel(ctx, "p1", "pilot", "sampling", "Punto de toma"))
		require.NoError(t, s.UpdateSectionNotes(ctx, "p1", "pilot", "campaña de marzo"))

		sections, err := s.Sections(ctx, "p1")
		require.NoError(t, err)
		sec := domain.FindSection(sections, "pilot")
		assert.Equal(t, "Punto de toma", sec.FindField("sampling").Label)
		assert.Equal(t, "campaña de marzo", sec.Notes)
	})

	t.Run("remove field then section", func(t *testing.T) {
		require.NoError(t, s.RemoveField(ctx, "p1", "pilot", "sampling-copy"))
		require.NoError(t, s.RemoveSection(ctx, "p1", "pilot"))

		sections, err := s.Sections(ctx, "p1")
		require.NoError(t, err)
		assert.Nil(t, domain.FindSection(sections, "pilot"))
	})

	t.Run("fixed section cannot be removed", func(t *testing.T) {
		err := s.RemoveSection(ctx, "p1", "general")
		assert.ErrorIs(t, err, domain.ErrFixedSection)
	})

	t.Run("missing targets are reported", func(t *testing.T) {
		assert.ErrorIs(t, s.RemoveSection(ctx, "p1", "nope"), domain.ErrSectionNotFound)
		assert.ErrorIs(t, s.UpdateField(ctx, "p1", "general", "nope", 1.0, "", domain.FieldSourceManual), domain.ErrFieldNotFound)
	})
}

func TestApplyTemplateMergeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := store.New(newFakePersister())

	template := []domain.Section{
		{ID: "general", Title: "Datos generales", Fields: []domain.Field{
			{ID: "flow", Label: "Caudal de diseño", Value: 120.0, Unit: "m3/d"},
		}},
		{ID: "reuse", Title: "Reutilización", Fields: []domain.Field{
			{ID: "target", Label: "Destino", Value: "riego"},
		}},
	}

	require.NoError(t, s.ApplyTemplate(ctx, "p1", template, domain.MergeModeMerge))
	first, err := s.Versions(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, first[0].Changes)

	require.NoError(t, s.ApplyTemplate(ctx, "p1", template, domain.MergeModeMerge))
	second, err := s.Versions(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, second[0].Changes, "re-applying an applied template must be a no-op")
}

func TestRevertToVersion(t *testing.T) {
	ctx := context.Background()
	s := store.New(newFakePersister())

	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 7.0, "", domain.FieldSourceManual))
	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 8.5, "", domain.FieldSourceManual))

	versions, err := s.Versions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	target := versions[1] // the ph=7.0 snapshot

	require.NoError(t, s.RevertToVersion(ctx, "p1", target.ID))

	sections, err := s.Sections(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, fieldValue(t, sections, "influent", "ph"))

	versions, err = s.Versions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 3, "revert appends, never rewrites history")
	assert.Equal(t, domain.VersionSourceRollback, versions[0].Source)
}

func TestResetToInitial(t *testing.T) {
	ctx := context.Background()
	s := store.New(newFakePersister())

	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 9.0, "", domain.FieldSourceManual))
	require.NoError(t, s.ResetToInitial(ctx, "p1"))

	sections, err := s.Sections(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(domain.DefaultTemplate(), sections))
}

func TestCopyFromProject(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	s := store.New(p)

	require.NoError(t, s.UpdateField(ctx, "source", "influent", "cod", 600.0, "mg/L", domain.FieldSourceManual))

	t.Run("replace copies the source sections", func(t *testing.T) {
		require.NoError(t, s.CopyFromProject(ctx, "dest", "source", domain.MergeModeReplace))
		sections, err := s.Sections(ctx, "dest")
		require.NoError(t, err)
		assert.Equal(t, 600.0, fieldValue(t, sections, "influent", "cod"))
	})

	t.Run("unknown source project fails", func(t *testing.T) {
		err := s.CopyFromProject(ctx, "dest", "ghost", domain.MergeModeReplace)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBatchUpdateIsOneVersion(t *testing.T) {
	ctx := context.Background()
	s := store.New(newFakePersister())

	updates := []domain.FieldUpdate{
		{SectionID: "influent", FieldID: "ph", Value: 7.1},
		{SectionID: "influent", FieldID: "cod", Value: 480.0, Unit: "mg/L"},
	}
	require.NoError(t, s.ApplyFieldUpdates(ctx, "p1", updates, domain.FieldSourceAI))

	versions, err := s.Versions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Len(t, versions[0].Changes, 2)
	assert.Equal(t, domain.VersionSourceAI, versions[0].Source)
}

func TestBatchUpdateFailureAppliesNothing(t *testing.T) {
	ctx := context.Background()
	s := store.New(newFakePersister())

	updates := []domain.FieldUpdate{
		{SectionID: "influent", FieldID: "ph", Value: 7.1},
		{SectionID: "influent", FieldID: "missing", Value: 1.0},
	}
	err := s.ApplyFieldUpdates(ctx, "p1", updates, domain.FieldSourceManual)
	require.ErrorIs(t, err, domain.ErrFieldNotFound)

	sections, err := s.Sections(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, fieldValue(t, sections, "influent", "ph"), "partial batch must not leak")
}

func TestActorIsRecorded(t *testing.T) {
	ctx := store.WithActor(context.Background(), "ing.garcia")
	s := store.New(newFakePersister())

	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 7.0, "", domain.FieldSourceManual))

	versions, err := s.Versions(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "ing.garcia", versions[0].CreatedBy)
}

// fakeArchiver keeps appended versions per project and serves them back,
// standing in for the postgres version archive.
type fakeArchiver struct {
	mu       sync.Mutex
	appended map[string][]domain.Version
	listErr  error
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{appended: map[string][]domain.Version{}}
}

func (a *fakeArchiver) Append(ctx context.Context, projectID string, v domain.Version) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.appended[projectID] = append([]domain.Version{v}, a.appended[projectID]...)
	return nil
}

func (a *fakeArchiver) ListByProject(ctx context.Context, projectID string) ([]domain.Version, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listErr != nil {
		return nil, a.listErr
	}
	out := make([]domain.Version, len(a.appended[projectID]))
	copy(out, a.appended[projectID])
	return out, nil
}

func TestHistorySurvivesRestartThroughArchive(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	archive := newFakeArchiver()

	s := store.New(p, store.WithArchiver(archive))
	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 7.0, "", domain.FieldSourceManual))
	require.NoError(t, s.UpdateField(ctx, "p1", "influent", "ph", 7.4, "", domain.FieldSourceManual))

	// A fresh store over the same persister and archive simulates a restart
	// with no cache: the versions endpoint must still see the history.
	restarted := store.New(p, store.WithArchiver(archive))
	versions, err := restarted.Versions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 7.4, versions[0].Changes[0].NewValue)

	got, err := restarted.Version(ctx, "p1", versions[1].ID)
	require.NoError(t, err)
	assert.Equal(t, versions[1].ID, got.ID)
}

func TestArchiveReadFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	archive := newFakeArchiver()
	archive.listErr = errors.New("archive offline")

	s := store.New(newFakePersister(), store.WithArchiver(archive))

	sections, err := s.Sections(ctx, "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, sections)

	versions, err := s.Versions(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, versions)
}
