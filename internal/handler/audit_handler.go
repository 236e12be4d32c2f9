package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/repository"
	"github.com/edupath/placement-api/pkg/response"
)

// AuditHandler exposes the audit trail for inspection.
type AuditHandler struct {
	repo *repository.AuditRepository
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(repo *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// ListByEntity godoc
// @Summary List audit entries for an entity
// @Tags Audit
// @Produce json
// @Param entity path string true "Entity name"
// @Param id path string true "Entity ID"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /audit/{entity}/{id} [get]
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	logs, err := h.repo.ListByEntity(c.Request.Context(), c.Param("entity"), c.Param("id"), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, logs, nil)
}
