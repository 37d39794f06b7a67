package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/store"
)

type Handler struct {
	store *store.Store
}

// RegisterProjectsSubroutes mounts the technical data API under a
// project-scoped router group.
func RegisterProjectsSubroutes(rg *gin.RouterGroup, st *store.Store) {
	h := &Handler{store: st}

	td := rg.Group("/:public_id/technical-data")

	td.GET("", h.getSections)
	td.POST("/sections", h.addSection)
	td.DELETE("/sections/:section_id", h.removeSection)
	td.PATCH("/sections/:section_id/notes", h.updateNotes)
	td.POST("/sections/:section_id/fields", h.addField)
	td.PATCH("/sections/:section_id/fields/:field_id", h.updateField)
	td.DELETE("/sections/:section_id/fields/:field_id", h.removeField)
	td.POST("/sections/:section_id/fields/:field_id/duplicate", h.duplicateField)
	td.PATCH("/sections/:section_id/fields/:field_id/label", h.updateLabel)
	td.POST("/fields/batch", h.batchUpdate)
	td.POST("/template", h.applyTemplate)
	td.POST("/copy-from/:source_id", h.copyFrom)
	td.POST("/reset", h.reset)
	td.GET("/versions", h.listVersions)
	td.GET("/versions/:version_id", h.getVersion)
	td.POST("/versions/:version_id/revert", h.revertVersion)
}

// respondMutationError maps store errors onto HTTP statuses. Persistence
// failures surface as 502: the store already rolled the project back.
func respondMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSectionNotFound),
		errors.Is(err, domain.ErrFieldNotFound),
		errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrFixedSection):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
	}
}

func (h *Handler) actorCtx(c *gin.Context) *gin.Context {
	if actor := c.GetHeader("X-User-Id"); actor != "" {
		c.Request = c.Request.WithContext(store.WithActor(c.Request.Context(), actor))
	}
	return c
}

func (h *Handler) getSections(c *gin.Context) {
	projectID := c.Param("public_id")

	sections, err := h.store.Sections(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"sections": sections,
		"error":    h.store.LastError(projectID),
	})
}

func (h *Handler) updateField(c *gin.Context) {
	projectID := c.Param("public_id")
	sectionID := c.Param("section_id")
	fieldID := c.Param("field_id")

	var req updateFieldReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	// Validation happens here, before the store: validation failures must
	// never produce an optimistic update or a version.
	if err := h.validateValue(c, projectID, sectionID, fieldID, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c = h.actorCtx(c)
	if err := h.store.UpdateField(c.Request.Context(), projectID, sectionID, fieldID, req.Value, req.Unit, domain.FieldSourceManual); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) validateValue(c *gin.Context, projectID, sectionID, fieldID string, value any) error {
	sections, err := h.store.Sections(c.Request.Context(), projectID)
	if err != nil {
		return nil // persister issues surface in the mutation itself
	}
	sec := domain.FindSection(sections, sectionID)
	if sec == nil {
		return nil
	}
	f := sec.FindField(fieldID)
	if f == nil {
		return nil
	}
	return domain.ValidateFieldValue(f, value)
}

func (h *Handler) batchUpdate(c *gin.Context) {
	projectID := c.Param("public_id")

	var req batchUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	for _, u := range req.Updates {
		if err := h.validateValue(c, projectID, u.SectionID, u.FieldID, u.Value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
	}

	c = h.actorCtx(c)
	if err := h.store.ApplyFieldUpdates(c.Request.Context(), projectID, req.Updates, domain.FieldSourceManual); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": len(req.Updates)})
}

func (h *Handler) addSection(c *gin.Context) {
	projectID := c.Param("public_id")

	var req addSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	c = h.actorCtx(c)
	if err := h.store.AddCustomSection(c.Request.Context(), projectID, req.ID, req.Title, req.Description); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) removeSection(c *gin.Context) {
	c = h.actorCtx(c)
	if err := h.store.RemoveSection(c.Request.Context(), c.Param("public_id"), c.Param("section_id")); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) addField(c *gin.Context) {
	projectID := c.Param("public_id")
	sectionID := c.Param("section_id")

	var req addFieldReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	f := domain.Field{
		ID:             req.ID,
		Label:          req.Label,
		Value:          req.Value,
		Type:           req.Type,
		Unit:           req.Unit,
		Source:         domain.FieldSourceManual,
		Required:       req.Required,
		ValidationRule: req.ValidationRule,
		Options:        req.Options,
	}

	c = h.actorCtx(c)
	if err := h.store.AddField(c.Request.Context(), projectID, sectionID, f); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) removeField(c *gin.Context) {
	c = h.actorCtx(c)
	if err := h.store.RemoveField(c.Request.Context(), c.Param("public_id"), c.Param("section_id"), c.Param("field_id")); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) duplicateField(c *gin.Context) {
	c = h.actorCtx(c)
	if err := h.store.DuplicateField(c.Request.Context(), c.Param("public_id"), c.Param("section_id"), c.Param("field_id")); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) updateLabel(c *gin.Context) {
	var req updateLabelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	c = h.actorCtx(c)
	if err := h.store.UpdateFieldLabel(c.Request.Context(), c.Param("public_id"), c.Param("section_id"), c.Param("field_id"), req.Label); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) updateNotes(c *gin.Context) {
	var req updateNotesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	c = h.actorCtx(c)
	if err := h.store.UpdateSectionNotes(c.Request.Context(), c.Param("public_id"), c.Param("section_id"), req.Notes); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) applyTemplate(c *gin.Context) {
	projectID := c.Param("public_id")

	var req applyTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	template := req.Sections
	if template == nil {
		template = domain.DefaultTemplate()
	}

	c = h.actorCtx(c)
	if err := h.store.ApplyTemplate(c.Request.Context(), projectID, template, req.Mode); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) copyFrom(c *gin.Context) {
	var req copyFromReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	c = h.actorCtx(c)
	if err := h.store.CopyFromProject(c.Request.Context(), c.Param("public_id"), c.Param("source_id"), req.Mode); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) reset(c *gin.Context) {
	c = h.actorCtx(c)
	if err := h.store.ResetToInitial(c.Request.Context(), c.Param("public_id")); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listVersions(c *gin.Context) {
	versions, err := h.store.Versions(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "versions": versions})
}

func (h *Handler) getVersion(c *gin.Context) {
	v, err := h.store.Version(c.Request.Context(), c.Param("public_id"), c.Param("version_id"))
	if err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": v})
}

func (h *Handler) revertVersion(c *gin.Context) {
	c = h.actorCtx(c)
	if err := h.store.RevertToVersion(c.Request.Context(), c.Param("public_id"), c.Param("version_id")); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
