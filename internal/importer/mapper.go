package importer

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

// MappingRule proposes writing one detected field into a target field on
// the data sheet. Selected rules score strictly above SelectionThreshold.
type MappingRule struct {
	Detected   DetectedField `json:"detected"`
	SectionID  string        `json:"section_id"`
	FieldID    string        `json:"field_id"`
	Label      string        `json:"label"`
	Unit       string        `json:"unit,omitempty"`
	Confidence int           `json:"confidence"`
	Selected   bool          `json:"selected"`
}

// Recommendation values for a conflict.
const (
	RecommendUseNew = "use_new"
)

// Conflict flags a selected mapping whose target field already holds a
// different value. The user resolves it per field before apply.
type Conflict struct {
	SectionID      string `json:"section_id"`
	FieldID        string `json:"field_id"`
	Label          string `json:"label"`
	ExistingValue  any    `json:"existing_value"`
	NewValue       any    `json:"new_value"`
	Recommendation string `json:"recommendation"`
}

// Preview is what the user reviews before applying an import: the proposed
// mappings, the conflicts among them, and the values that would land.
type Preview struct {
	ID          string            `json:"id"`
	Mappings    []MappingRule     `json:"mappings"`
	Conflicts   []Conflict        `json:"conflicts"`
	PreviewData []domain.FieldUpdate `json:"preview_data"`
}

// Mapper matches detected fields against the parameter dictionary.
type Mapper struct {
	dict   *Dictionary
	scorer Scorer
}

func NewMapper(dict *Dictionary, scorer Scorer) *Mapper {
	if dict == nil {
		dict = DefaultDictionary()
	}
	if scorer == nil {
		scorer = KeywordScorer{}
	}
	return &Mapper{dict: dict, scorer: scorer}
}

// CreatePreview maps every detected field to its best-scoring dictionary
// parameter and flags conflicts against the existing sheet data.
func (m *Mapper) CreatePreview(analysis *Analysis, existing []domain.Section) *Preview {
	p := &Preview{ID: uuid.New().String()}

	for _, df := range analysis.DetectedFields {
		best, score := m.bestMatch(df.OriginalName)
		if best == nil {
			continue
		}

		unit := df.Unit
		if unit == "" {
			unit = best.Unit
		}
		rule := MappingRule{
			Detected:   df,
			SectionID:  best.SectionID,
			FieldID:    best.FieldID,
			Label:      best.Label,
			Unit:       unit,
			Confidence: score,
			Selected:   score > SelectionThreshold,
		}
		p.Mappings = append(p.Mappings, rule)

		if !rule.Selected {
			continue
		}

		p.PreviewData = append(p.PreviewData, domain.FieldUpdate{
			SectionID: rule.SectionID,
			FieldID:   rule.FieldID,
			Value:     df.Value,
			Unit:      rule.Unit,
		})

		if existingValue, ok := existingFieldValue(existing, rule.SectionID, rule.FieldID); ok {
			if !valuesEqual(existingValue, df.Value) {
				p.Conflicts = append(p.Conflicts, Conflict{
					SectionID:      rule.SectionID,
					FieldID:        rule.FieldID,
					Label:          rule.Label,
					ExistingValue:  existingValue,
					NewValue:       df.Value,
					Recommendation: RecommendUseNew,
				})
			}
		}
	}

	return p
}

func (m *Mapper) bestMatch(name string) (*Parameter, int) {
	var best *Parameter
	bestScore := 0
	for i := range m.dict.Parameters {
		if score := m.scorer.Score(name, m.dict.Parameters[i]); score > bestScore {
			best = &m.dict.Parameters[i]
			bestScore = score
		}
	}
	return best, bestScore
}

func existingFieldValue(sections []domain.Section, sectionID, fieldID string) (any, bool) {
	sec := domain.FindSection(sections, sectionID)
	if sec == nil {
		return nil, false
	}
	f := sec.FindField(fieldID)
	if f == nil || f.Value == nil {
		return nil, false
	}
	if s, ok := f.Value.(string); ok && s == "" {
		return nil, false
	}
	return f.Value, true
}

// valuesEqual compares an existing sheet value with an incoming one,
// treating numerically equal representations as equal so "7.0" does not
// conflict with 7.
func valuesEqual(existing, incoming any) bool {
	if en, ok := ParseNumeric(existing); ok {
		if nn, ok := ParseNumeric(incoming); ok {
			return en == nn
		}
		return false
	}
	return fmt.Sprintf("%v", existing) == fmt.Sprintf("%v", incoming)
}

// Resolution is the user's per-conflict decision.
type Resolution string

const (
	ResolutionKeepExisting Resolution = "keep_existing"
	ResolutionUseNew       Resolution = "use_new"
	ResolutionMerge        Resolution = "merge"
)

// ResolveValue applies a conflict decision. Merge averages the two values
// when both are numeric, rounded to 2 decimals, and otherwise falls back
// to the new value.
func ResolveValue(existing, incoming any, r Resolution) any {
	switch r {
	case ResolutionKeepExisting:
		return existing
	case ResolutionMerge:
		en, eok := ParseNumeric(existing)
		nn, nok := ParseNumeric(incoming)
		if eok && nok {
			return math.Round((en+nn)/2*100) / 100
		}
		return incoming
	default:
		return incoming
	}
}
