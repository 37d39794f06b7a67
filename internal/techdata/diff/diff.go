package diff

import (
	"reflect"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

// Comparator reports whether two field values are considered equal.
type Comparator func(old, new any) bool

// StrictEqual is the default comparator: exact equality including type, so
// the string "7" and the number 7 count as a change. Historical behavior,
// kept behind the Comparator seam so callers can opt into a looser rule.
func StrictEqual(old, new any) bool {
	return reflect.DeepEqual(old, new)
}

// Engine computes field-level changes between two section snapshots.
type Engine struct {
	cmp Comparator
}

func New() *Engine {
	return &Engine{cmp: StrictEqual}
}

// NewWithComparator builds an engine using a custom value comparator.
func NewWithComparator(cmp Comparator) *Engine {
	if cmp == nil {
		cmp = StrictEqual
	}
	return &Engine{cmp: cmp}
}

type fieldKey struct {
	sectionID string
	fieldID   string
}

// Changes diffs previous against current. A nil previous snapshot reports
// every current field as added. Added and modified changes come out in
// section-then-field traversal order of current; removed changes are
// appended afterwards in map-iteration order.
func (e *Engine) Changes(previous, current []domain.Section, source domain.VersionSource) []domain.Change {
	changes := make([]domain.Change, 0)

	if previous == nil {
		for _, sec := range current {
			for _, f := range sec.Fields {
				changes = append(changes, domain.Change{
					SectionID:  sec.ID,
					FieldID:    f.ID,
					Label:      f.Label,
					NewValue:   f.Value,
					Unit:       f.Unit,
					Source:     source,
					ChangeType: domain.ChangeAdded,
				})
			}
		}
		return changes
	}

	prev := make(map[fieldKey]domain.Field)
	for _, sec := range previous {
		for _, f := range sec.Fields {
			prev[fieldKey{sectionID: sec.ID, fieldID: f.ID}] = f
		}
	}

	for _, sec := range current {
		for _, f := range sec.Fields {
			k := fieldKey{sectionID: sec.ID, fieldID: f.ID}
			old, ok := prev[k]
			if !ok {
				changes = append(changes, domain.Change{
					SectionID:  sec.ID,
					FieldID:    f.ID,
					Label:      f.Label,
					NewValue:   f.Value,
					Unit:       f.Unit,
					Source:     source,
					ChangeType: domain.ChangeAdded,
				})
				continue
			}
			delete(prev, k)

			if !e.cmp(old.Value, f.Value) || old.Unit != f.Unit {
				changes = append(changes, domain.Change{
					SectionID:  sec.ID,
					FieldID:    f.ID,
					Label:      f.Label,
					OldValue:   old.Value,
					NewValue:   f.Value,
					Unit:       f.Unit,
					Source:     source,
					ChangeType: domain.ChangeModified,
				})
			}
		}
	}

	for k, f := range prev {
		changes = append(changes, domain.Change{
			SectionID:  k.sectionID,
			FieldID:    f.ID,
			Label:      f.Label,
			OldValue:   f.Value,
			Unit:       f.Unit,
			Source:     source,
			ChangeType: domain.ChangeRemoved,
		})
	}

	return changes
}
