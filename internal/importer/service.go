package importer

import (
	"context"
	"fmt"

	"github.com/hydroplan-hq/techsheet-backend/internal/logging"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/store"
)

// Service runs the import pipeline end to end: analyze an upload, preview
// mappings against a project's current data, and write accepted values
// through the mutation façade.
type Service struct {
	mapper *Mapper
	store  *store.Store
}

func NewService(mapper *Mapper, st *store.Store) *Service {
	return &Service{mapper: mapper, store: st}
}

func (s *Service) Analyze(fileName string, content []byte) (*Analysis, error) {
	return Analyze(fileName, content)
}

// Preview maps an analysis against the project's live sections.
func (s *Service) Preview(ctx context.Context, projectID string, analysis *Analysis) (*Preview, error) {
	sections, err := s.store.Sections(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load sections for preview: %w", err)
	}
	return s.mapper.CreatePreview(analysis, sections), nil
}

// DecisionKey identifies a conflict decision for a target field.
func DecisionKey(sectionID, fieldID string) string {
	return sectionID + "/" + fieldID
}

// Apply writes the selected mappings through the façade's UpdateField with
// source "imported". Mappings resolved as keep_existing are skipped, as
// are unselected ones. Returns how many fields were written; applying an
// import with nothing selected is a no-op, not an error.
func (s *Service) Apply(ctx context.Context, projectID string, mappings []MappingRule, decisions map[string]Resolution) (int, error) {
	logger := logging.NewLogger(ctx)

	sections, err := s.store.Sections(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("load sections for apply: %w", err)
	}

	applied := 0
	for _, rule := range mappings {
		if !rule.Selected {
			continue
		}

		decision := ResolutionUseNew
		if d, ok := decisions[DecisionKey(rule.SectionID, rule.FieldID)]; ok {
			decision = d
		}
		if decision == ResolutionKeepExisting {
			continue
		}

		value := rule.Detected.Value
		if existing, ok := existingFieldValue(sections, rule.SectionID, rule.FieldID); ok {
			value = ResolveValue(existing, rule.Detected.Value, decision)
		}

		if err := s.store.UpdateField(ctx, projectID, rule.SectionID, rule.FieldID, value, rule.Unit, domain.FieldSourceImported); err != nil {
			return applied, fmt.Errorf("apply mapping %s/%s: %w", rule.SectionID, rule.FieldID, err)
		}
		applied++
	}

	logger.LogInfof("import_apply", "applied %d of %d mappings for project_id=%s", applied, len(mappings), projectID)
	return applied, nil
}
