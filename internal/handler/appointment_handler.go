package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// AppointmentHandler wires HTTP endpoints to the appointment service.
type AppointmentHandler struct {
	service *service.AppointmentService
}

// NewAppointmentHandler creates a new handler.
func NewAppointmentHandler(svc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc}
}

// Create godoc
// @Summary Schedule an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body service.CreateAppointmentRequest true "Appointment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req service.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appointment payload"))
		return
	}

	appointment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, appointment)
}

// ListByStaff godoc
// @Summary List a staff member's appointments
// @Tags Appointments
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/appointments [get]
func (h *AppointmentHandler) ListByStaff(c *gin.Context) {
	appointments, err := h.service.ListByStaff(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, appointments, nil)
}

// UpdateStatus godoc
// @Summary Update appointment status
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body object true "Target status"
// @Success 204 {object} response.Envelope
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status models.AppointmentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), payload.Status); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
