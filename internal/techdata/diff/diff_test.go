package diff_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/diff"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

func sections(fields ...domain.Field) []domain.Section {
	return []domain.Section{{ID: "influent", Title: "Influent", Fields: fields}}
}

func TestChanges_NilPrevious(t *testing.T) {
	e := diff.New()

	cur := sections(
		domain.Field{ID: "ph", Label: "pH", Value: 7.2},
		domain.Field{ID: "cod", Label: "DQO", Value: 450.0, Unit: "mg/L"},
	)

	changes := e.Changes(nil, cur, domain.VersionSourceManual)
	require.Len(t, changes, 2)
	for _, ch := range changes {
		assert.Equal(t, domain.ChangeAdded, ch.ChangeType)
		assert.Equal(t, "influent", ch.SectionID)
	}
	assert.Equal(t, "ph", changes[0].FieldID)
	assert.Equal(t, "cod", changes[1].FieldID)
}

func TestChanges_Modified(t *testing.T) {
	e := diff.New()

	prev := sections(domain.Field{ID: "ph", Label: "pH", Value: 7.2})
	cur := sections(domain.Field{ID: "ph", Label: "pH", Value: 6.8})

	changes := e.Changes(prev, cur, domain.VersionSourceManual)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeModified, changes[0].ChangeType)
	assert.Equal(t, 7.2, changes[0].OldValue)
	assert.Equal(t, 6.8, changes[0].NewValue)
}

func TestChanges_UnitChangeAloneIsModified(t *testing.T) {
	e := diff.New()

	prev := sections(domain.Field{ID: "flow", Value: 50.0, Unit: "L/s"})
	cur := sections(domain.Field{ID: "flow", Value: 50.0, Unit: "m3/h"})

	changes := e.Changes(prev, cur, domain.VersionSourceManual)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeModified, changes[0].ChangeType)
	assert.Equal(t, "m3/h", changes[0].Unit)
}

func TestChanges_StringNumberMismatchIsModified(t *testing.T) {
	// Strict comparison on purpose: "7" (string) and 7 (number) differ.
	e := diff.New()

	prev := sections(domain.Field{ID: "ph", Value: "7"})
	cur := sections(domain.Field{ID: "ph", Value: 7.0})

	changes := e.Changes(prev, cur, domain.VersionSourceManual)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeModified, changes[0].ChangeType)
}

func TestChanges_CustomComparator(t *testing.T) {
	loose := func(old, new any) bool {
		return toString(old) == toString(new)
	}
	e := diff.NewWithComparator(loose)

	prev := sections(domain.Field{ID: "ph", Value: "7"})
	cur := sections(domain.Field{ID: "ph", Value: 7})

	assert.Empty(t, e.Changes(prev, cur, domain.VersionSourceManual))
}

func toString(v any) string {
	return fmt.Sprintf("%v", v)
}

func TestChanges_AddedAndRemoved(t *testing.T) {
	e := diff.New()

	prev := sections(
		domain.Field{ID: "ph", Value: 7.2},
		domain.Field{ID: "turbidity", Value: 12.0},
	)
	cur := sections(
		domain.Field{ID: "ph", Value: 7.2},
		domain.Field{ID: "cod", Value: 450.0},
	)

	changes := e.Changes(prev, cur, domain.VersionSourceImport)
	require.Len(t, changes, 2)

	// Added/modified come first in traversal order, removals last.
	assert.Equal(t, domain.ChangeAdded, changes[0].ChangeType)
	assert.Equal(t, "cod", changes[0].FieldID)
	assert.Equal(t, domain.ChangeRemoved, changes[1].ChangeType)
	assert.Equal(t, "turbidity", changes[1].FieldID)
	assert.Equal(t, 12.0, changes[1].OldValue)
}

func TestChanges_EqualSnapshotsProduceNothing(t *testing.T) {
	e := diff.New()

	a := sections(
		domain.Field{ID: "ph", Value: 7.2},
		domain.Field{ID: "cod", Value: 450.0, Unit: "mg/L"},
	)
	b := sections(
		domain.Field{ID: "ph", Value: 7.2},
		domain.Field{ID: "cod", Value: 450.0, Unit: "mg/L"},
	)

	assert.Empty(t, e.Changes(a, b, domain.VersionSourceManual))
}

func TestChanges_FieldMovedAcrossSections(t *testing.T) {
	e := diff.New()

	prev := []domain.Section{
		{ID: "a", Fields: []domain.Field{{ID: "ph", Value: 7.0}}},
	}
	cur := []domain.Section{
		{ID: "a"},
		{ID: "b", Fields: []domain.Field{{ID: "ph", Value: 7.0}}},
	}

	// Identity is (section, field): a move reads as add in b, remove from a.
	changes := e.Changes(prev, cur, domain.VersionSourceManual)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ChangeAdded, changes[0].ChangeType)
	assert.Equal(t, "b", changes[0].SectionID)
	assert.Equal(t, domain.ChangeRemoved, changes[1].ChangeType)
	assert.Equal(t, "a", changes[1].SectionID)
}
