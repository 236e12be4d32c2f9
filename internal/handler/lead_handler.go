package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// LeadHandler wires HTTP endpoints to the lead service.
type LeadHandler struct {
	service *service.LeadService
}

// NewLeadHandler creates a new handler.
func NewLeadHandler(svc *service.LeadService) *LeadHandler {
	return &LeadHandler{service: svc}
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param status query string false "Filter by status"
// @Param assigned_to query string false "Filter by assigned staff"
// @Param search query string false "Search by name or phone"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	filter := models.LeadFilter{
		Status:     models.LeadStatus(c.Query("status")),
		AssignedTo: c.Query("assigned_to"),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}

	leads, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, leads, pagination)
}

// Get godoc
// @Summary Get lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, lead, nil)
}

// Create godoc
// @Summary Create lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body service.CreateLeadRequest true "Lead payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req service.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lead payload"))
		return
	}

	lead, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, lead)
}

// ChangeStatus godoc
// @Summary Change lead status
// @Description Moves the lead along its lifecycle; invalid transitions are rejected
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body object true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leads/{id}/status [patch]
func (h *LeadHandler) ChangeStatus(c *gin.Context) {
	var payload struct {
		Status models.LeadStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}

	lead, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), payload.Status, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, lead, nil)
}

// RecordContact godoc
// @Summary Record lead contact
// @Description Stamps the lead's last contact time for idle tracking
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 204 {object} response.Envelope
// @Router /leads/{id}/contact [post]
func (h *LeadHandler) RecordContact(c *gin.Context) {
	if err := h.service.RecordContact(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Convert godoc
// @Summary Convert lead to student
// @Description Creates a student in pending_contract and marks the lead converted atomically
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body object false "Optional staff assignment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *gin.Context) {
	var payload struct {
		AssignedStaffID *string `json:"assigned_staff_id"`
	}
	_ = c.ShouldBindJSON(&payload)

	student, err := h.service.Convert(c.Request.Context(), c.Param("id"), payload.AssignedStaffID, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, student)
}

// Idle godoc
// @Summary List idle leads
// @Description Leads with no contact activity past the threshold
// @Tags Leads
// @Produce json
// @Param threshold_days query int false "Idle threshold in days"
// @Success 200 {object} response.Envelope
// @Router /leads/idle [get]
func (h *LeadHandler) Idle(c *gin.Context) {
	leads, err := h.service.IdleLeads(c.Request.Context(), queryInt(c, "threshold_days", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, leads, nil)
}
