package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hydroplan-hq/techsheet-backend/internal/importer"
)

const maxUploadBytes = 10 << 20 // 10 MiB

type Handler struct {
	svc *importer.Service
}

// RegisterProjectsSubroutes mounts the import pipeline under a
// project-scoped router group.
func RegisterProjectsSubroutes(rg *gin.RouterGroup, svc *importer.Service) {
	h := &Handler{svc: svc}

	imp := rg.Group("/:public_id/import")
	imp.POST("/analyze", h.analyze)
	imp.POST("/preview", h.preview)
	imp.POST("/apply", h.apply)
}

func (h *Handler) analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "file too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "cannot read upload"})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "cannot read upload"})
		return
	}

	analysis, err := h.svc.Analyze(fileHeader.Filename, content)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "analysis": analysis})
}

type previewReq struct {
	Analysis *importer.Analysis `json:"analysis" binding:"required"`
}

func (h *Handler) preview(c *gin.Context) {
	projectID := c.Param("public_id")

	var req previewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	preview, err := h.svc.Preview(c.Request.Context(), projectID, req.Analysis)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "preview": preview})
}

type applyReq struct {
	Mappings  []importer.MappingRule         `json:"mappings" binding:"required"`
	Decisions map[string]importer.Resolution `json:"decisions"`
}

func (h *Handler) apply(c *gin.Context) {
	projectID := c.Param("public_id")

	var req applyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	applied, err := h.svc.Apply(c.Request.Context(), projectID, req.Mappings, req.Decisions)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "applied": applied})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "applied": applied})
}
