package http

import "github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"

type updateFieldReq struct {
	Value any    `json:"value"`
	Unit  string `json:"unit"`
}

type batchUpdateReq struct {
	Updates []domain.FieldUpdate `json:"updates" binding:"required,min=1,dive"`
}

type addSectionReq struct {
	ID          string `json:"id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type addFieldReq struct {
	ID             string           `json:"id" binding:"required"`
	Label          string           `json:"label" binding:"required"`
	Value          any              `json:"value"`
	Type           domain.FieldType `json:"type" binding:"required"`
	Unit           string           `json:"unit"`
	Required       bool             `json:"required"`
	ValidationRule string           `json:"validation_rule"`
	Options        []string         `json:"options"`
}

type updateLabelReq struct {
	Label string `json:"label" binding:"required"`
}

type updateNotesReq struct {
	Notes string `json:"notes"`
}

type applyTemplateReq struct {
	Mode     domain.MergeMode `json:"mode" binding:"required,oneof=replace merge"`
	Sections []domain.Section `json:"sections"`
}

type copyFromReq struct {
	Mode domain.MergeMode `json:"mode" binding:"required,oneof=replace merge"`
}
