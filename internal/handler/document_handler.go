package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// DocumentHandler wires HTTP endpoints to the document service.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Create godoc
// @Summary Register a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body service.CreateDocumentRequest true "Document payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid document payload"))
		return
	}

	doc, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, doc)
}

// ListByStudent godoc
// @Summary List a student's documents
// @Description Hidden offer documents are excluded unless include_hidden is set
// @Tags Documents
// @Produce json
// @Param id path string true "Student ID"
// @Param include_hidden query bool false "Include hidden documents"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/documents [get]
func (h *DocumentHandler) ListByStudent(c *gin.Context) {
	includeHidden := c.Query("include_hidden") == "true"
	docs, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"), includeHidden)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, docs, nil)
}

// Update godoc
// @Summary Update a document
// @Description A locked document rejects every update unless clear_lock is set
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body service.UpdateDocumentRequest true "Document update"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents/{id} [patch]
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid document payload"))
		return
	}

	doc, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}

// Verify godoc
// @Summary Verify a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/verify [post]
func (h *DocumentHandler) Verify(c *gin.Context) {
	doc, err := h.service.Verify(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}

// MarkError godoc
// @Summary Flag a document as faulty
// @Description Marks the document in error and alerts the student's counselor
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body object true "Error note"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/error [post]
func (h *DocumentHandler) MarkError(c *gin.Context) {
	var payload struct {
		Note string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "note required"))
		return
	}

	doc, err := h.service.MarkError(c.Request.Context(), c.Param("id"), payload.Note, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}
