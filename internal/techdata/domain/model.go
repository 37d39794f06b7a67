package domain

import "time"

// FieldType classifies how a field value is entered and rendered.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeUnit   FieldType = "unit"
	FieldTypeSelect FieldType = "select"
	FieldTypeTags   FieldType = "tags"
)

// FieldSource records where a field value came from.
type FieldSource string

const (
	FieldSourceManual   FieldSource = "manual"
	FieldSourceImported FieldSource = "imported"
	FieldSourceAI       FieldSource = "ai"
)

// VersionSource tags the mutation that produced a version.
type VersionSource string

const (
	VersionSourceManual   VersionSource = "manual"
	VersionSourceAI       VersionSource = "ai"
	VersionSourceImport   VersionSource = "import"
	VersionSourceRollback VersionSource = "rollback"
)

// ChangeType classifies a single field-level change between two snapshots.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// MergeMode selects how ApplyTemplate combines incoming sections with the
// project's current sections.
type MergeMode string

const (
	MergeModeReplace MergeMode = "replace"
	MergeModeMerge   MergeMode = "merge"
)

// Field is a single named, typed, unit-aware data point within a section.
// Value holds a string, a number (float64 after JSON decoding) or a string
// slice depending on Type. Identity is ID, unique within its section.
type Field struct {
	ID             string      `json:"id"`
	Label          string      `json:"label"`
	Value          any         `json:"value"`
	Type           FieldType   `json:"type"`
	Unit           string      `json:"unit,omitempty"`
	Source         FieldSource `json:"source"`
	Required       bool        `json:"required,omitempty"`
	ValidationRule string      `json:"validation_rule,omitempty"`
	Options        []string    `json:"options,omitempty"`
}

// Section groups related fields on a project's technical data sheet.
// Fixed sections are system-defined and cannot be removed; custom sections
// are user-created.
type Section struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	Notes       string  `json:"notes,omitempty"`
	Fixed       bool    `json:"fixed"`
}

// Change is one field-level difference between two snapshots. Computed by
// the diff engine, never mutated.
type Change struct {
	SectionID  string        `json:"section_id"`
	FieldID    string        `json:"field_id"`
	Label      string        `json:"label"`
	OldValue   any           `json:"old_value,omitempty"`
	NewValue   any           `json:"new_value,omitempty"`
	Unit       string        `json:"unit,omitempty"`
	Source     VersionSource `json:"source"`
	ChangeType ChangeType    `json:"change_type"`
}

// Version is an immutable snapshot of a project's sections plus the diff
// that produced it. Version lists are kept newest first.
type Version struct {
	ID        string        `json:"id"`
	Label     string        `json:"version_label"`
	CreatedAt time.Time     `json:"created_at"`
	CreatedBy string        `json:"created_by,omitempty"`
	Source    VersionSource `json:"source"`
	Snapshot  []Section     `json:"snapshot"`
	Changes   []Change      `json:"changes"`
	Notes     string        `json:"notes,omitempty"`
}

// FieldUpdate addresses one field value change inside a batch mutation.
type FieldUpdate struct {
	SectionID string `json:"section_id"`
	FieldID   string `json:"field_id"`
	Value     any    `json:"value"`
	Unit      string `json:"unit,omitempty"`
}

// FindSection returns the section with the given id, or nil.
func FindSection(sections []Section, sectionID string) *Section {
	for i := range sections {
		if sections[i].ID == sectionID {
			return &sections[i]
		}
	}
	return nil
}

// FindField returns the field with the given id within a section, or nil.
func (s *Section) FindField(fieldID string) *Field {
	for i := range s.Fields {
		if s.Fields[i].ID == fieldID {
			return &s.Fields[i]
		}
	}
	return nil
}
