package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

func versionSourceFor(src domain.FieldSource) domain.VersionSource {
	switch src {
	case domain.FieldSourceImported:
		return domain.VersionSourceImport
	case domain.FieldSourceAI:
		return domain.VersionSourceAI
	default:
		return domain.VersionSourceManual
	}
}

// UpdateField sets one field's value (and unit, when given). src tags where
// the value came from: manual edits, file imports or AI proposals.
func (s *Store) UpdateField(ctx context.Context, projectID, sectionID, fieldID string, value any, unit string, src domain.FieldSource) error {
	label := fmt.Sprintf("Updated field %s", fieldID)

	return s.mutate(ctx, projectID, label, versionSourceFor(src), domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		sec := domain.FindSection(sections, sectionID)
		if sec == nil {
			return nil, domain.ErrSectionNotFound
		}
		f := sec.FindField(fieldID)
		if f == nil {
			return nil, domain.ErrFieldNotFound
		}
		f.Value = value
		if unit != "" {
			f.Unit = unit
		}
		f.Source = src
		return sections, nil
	})
}

// ApplyFieldUpdates applies a batch of field updates as one mutation with a
// single persist round-trip and a single version.
func (s *Store) ApplyFieldUpdates(ctx context.Context, projectID string, updates []domain.FieldUpdate, src domain.FieldSource) error {
	if len(updates) == 0 {
		return nil
	}
	label := fmt.Sprintf("Updated %d fields", len(updates))

	return s.mutate(ctx, projectID, label, versionSourceFor(src), domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		for _, u := range updates {
			sec := domain.FindSection(sections, u.SectionID)
			if sec == nil {
				return nil, fmt.Errorf("section %q: %w", u.SectionID, domain.ErrSectionNotFound)
			}
			f := sec.FindField(u.FieldID)
			if f == nil {
				return nil, fmt.Errorf("field %q: %w", u.FieldID, domain.ErrFieldNotFound)
			}
			f.Value = u.Value
			if u.Unit != "" {
				f.Unit = u.Unit
			}
			f.Source = src
		}
		return sections, nil
	})
}

// AddCustomSection appends a user-created (removable) section.
func (s *Store) AddCustomSection(ctx context.Context, projectID, sectionID, title, description string) error {
	label := fmt.Sprintf("Added section %s", title)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		if domain.FindSection(sections, sectionID) != nil {
			return nil, fmt.Errorf("section %q: %w", sectionID, domain.ErrDuplicateID)
		}
		sections = append(sections, domain.Section{
			ID:          sectionID,
			Title:       title,
			Description: description,
			Fields:      []domain.Field{},
		})
		return sections, nil
	})
}

// RemoveSection deletes a custom section. Fixed sections cannot be removed.
func (s *Store) RemoveSection(ctx context.Context, projectID, sectionID string) error {
	label := fmt.Sprintf("Removed section %s", sectionID)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		for i := range sections {
			if sections[i].ID != sectionID {
				continue
			}
			if sections[i].Fixed {
				return nil, domain.ErrFixedSection
			}
			return append(sections[:i], sections[i+1:]...), nil
		}
		return nil, domain.ErrSectionNotFound
	})
}

// AddField appends a field to a section.
func (s *Store) AddField(ctx context.Context, projectID, sectionID string, f domain.Field) error {
	label := fmt.Sprintf("Added field %s", f.ID)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		sec := domain.FindSection(sections, sectionID)
		if sec == nil {
			return nil, domain.ErrSectionNotFound
		}
		if sec.FindField(f.ID) != nil {
			return nil, fmt.Errorf("field %q: %w", f.ID, domain.ErrDuplicateID)
		}
		if f.Source == "" {
			f.Source = domain.FieldSourceManual
		}
		sec.Fields = append(sec.Fields, f)
		return sections, nil
	})
}

// RemoveField deletes a field from a section.
func (s *Store) RemoveField(ctx context.Context, projectID, sectionID, fieldID string) error {
	label := fmt.Sprintf("Removed field %s", fieldID)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		sec := domain.FindSection(sections, sectionID)
		if sec == nil {
			return nil, domain.ErrSectionNotFound
		}
		for i := range sec.Fields {
			if sec.Fields[i].ID == fieldID {
				sec.Fields = append(sec.Fields[:i], sec.Fields[i+1:]...)
				return sections, nil
			}
		}
		return nil, domain.ErrFieldNotFound
	})
}

// DuplicateField copies a field within its section under a derived id.
func (s *Store) DuplicateField(ctx context.Context, projectID, sectionID, fieldID string) error {
	label := fmt.Sprintf("Duplicated field %s", fieldID)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		sec := domain.FindSection(sections, sectionID)
		if sec == nil {
			return nil, domain.ErrSectionNotFound
		}
		f := sec.FindField(fieldID)
		if f == nil {
			return nil, domain.ErrFieldNotFound
		}

		dup := domain.CloneFields([]domain.Field{*f})[0]
		dup.ID = nextCopyID(sec, fieldID)
		dup.Label = f.Label + " (copia)"
		sec.Fields = append(sec.Fields, dup)
		return sections, nil
	})
}

func nextCopyID(sec *domain.Section, fieldID string) string {
	id := fieldID + "-copy"
	for n := 2; sec.FindField(id) != nil; n++ {
		id = fmt.Sprintf("%s-copy-%d", fieldID, n)
	}
	return id
}

// UpdateFieldLabel renames a field.
func (s *Store) UpdateFieldLabel(ctx context.Context, projectID, sectionID, fieldID, newLabel string) error {
	label := fmt.Sprintf("Renamed field %s", fieldID)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		sec := domain.FindSection(sections, sectionID)
		if sec == nil {
			return nil, domain.ErrSectionNotFound
		}
		f := sec.FindField(fieldID)
		if f == nil {
			return nil, domain.ErrFieldNotFound
		}
		f.Label = strings.TrimSpace(newLabel)
		return sections, nil
	})
}

// UpdateSectionNotes sets the free-text notes on a section.
func (s *Store) UpdateSectionNotes(ctx context.Context, projectID, sectionID, notes string) error {
	label := fmt.Sprintf("Updated notes on section %s", sectionID)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, domain.MergeModeMerge, func(sections []domain.Section) ([]domain.Section, error) {
		sec := domain.FindSection(sections, sectionID)
		if sec == nil {
			return nil, domain.ErrSectionNotFound
		}
		sec.Notes = notes
		return sections, nil
	})
}

// ApplyTemplate applies a full section layout. Replace mode swaps the
// project's sections for the template; merge mode adds missing sections
// and fields and overwrites values only where the template carries one,
// so re-applying an already-applied template is a no-op.
func (s *Store) ApplyTemplate(ctx context.Context, projectID string, template []domain.Section, mode domain.MergeMode) error {
	label := fmt.Sprintf("Applied template (%s)", mode)

	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, mode, func(sections []domain.Section) ([]domain.Section, error) {
		if mode == domain.MergeModeReplace {
			return domain.CloneSections(template), nil
		}
		return mergeTemplate(sections, template), nil
	})
}

func mergeTemplate(sections, template []domain.Section) []domain.Section {
	for _, tpl := range template {
		sec := domain.FindSection(sections, tpl.ID)
		if sec == nil {
			copied := domain.CloneSections([]domain.Section{tpl})[0]
			sections = append(sections, copied)
			continue
		}
		for _, tf := range tpl.Fields {
			f := sec.FindField(tf.ID)
			if f == nil {
				sec.Fields = append(sec.Fields, domain.CloneFields([]domain.Field{tf})[0])
				continue
			}
			if !isEmpty(tf.Value) {
				f.Value = tf.Value
			}
			if tf.Unit != "" {
				f.Unit = tf.Unit
			}
		}
	}
	return sections
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// CopyFromProject reads another project's persisted sections and applies
// them here as a template.
func (s *Store) CopyFromProject(ctx context.Context, projectID, sourceProjectID string, mode domain.MergeMode) error {
	sections, ok, err := s.persister.Load(ctx, sourceProjectID)
	if err != nil {
		return fmt.Errorf("load source project: %w", err)
	}
	if !ok {
		return fmt.Errorf("source project %q: %w", sourceProjectID, domain.ErrNotFound)
	}

	label := fmt.Sprintf("Copied data from project %s", sourceProjectID)
	return s.mutate(ctx, projectID, label, domain.VersionSourceManual, mode, func(current []domain.Section) ([]domain.Section, error) {
		if mode == domain.MergeModeReplace {
			return domain.CloneSections(sections), nil
		}
		return mergeTemplate(current, sections), nil
	})
}

// ResetToInitial restores the built-in empty template.
func (s *Store) ResetToInitial(ctx context.Context, projectID string) error {
	return s.mutate(ctx, projectID, "Reset to initial template", domain.VersionSourceManual, domain.MergeModeReplace, func(sections []domain.Section) ([]domain.Section, error) {
		return domain.DefaultTemplate(), nil
	})
}

// RevertToVersion restores a past snapshot and records the restore as a
// new rollback version; history is never rewritten.
func (s *Store) RevertToVersion(ctx context.Context, projectID, versionID string) error {
	v, err := s.Version(ctx, projectID, versionID)
	if err != nil {
		return err
	}

	label := fmt.Sprintf("Reverted to version %s", v.Label)
	return s.mutate(ctx, projectID, label, domain.VersionSourceRollback, domain.MergeModeReplace, func(sections []domain.Section) ([]domain.Section, error) {
		return domain.CloneSections(v.Snapshot), nil
	})
}
