package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// ApplicationHandler wires HTTP endpoints to the application service.
type ApplicationHandler struct {
	service *service.ApplicationService
}

// NewApplicationHandler creates a new handler.
func NewApplicationHandler(svc *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: svc}
}

// Create godoc
// @Summary Create university application
// @Description Creates a draft application; batch sizes and duplicate universities are enforced
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body service.CreateApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req service.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	app, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, app)
}

// Get godoc
// @Summary Get application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// ListByStudent godoc
// @Summary List a student's applications
// @Tags Applications
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/applications [get]
func (h *ApplicationHandler) ListByStudent(c *gin.Context) {
	apps, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, apps, nil)
}

// SubmitToAdmin godoc
// @Summary Submit application for internal review
// @Description Moves the application to pending_admin and locks the student profile
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/submit-admin [post]
func (h *ApplicationHandler) SubmitToAdmin(c *gin.Context) {
	app, err := h.service.SubmitToAdmin(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// Reject godoc
// @Summary Reject application in internal review
// @Description Rejects the application, unlocks the profile and returns the student to the counselor
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body object true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "reason required"))
		return
	}

	app, err := h.service.Reject(c.Request.Context(), c.Param("id"), payload.Reason, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// SubmitToUniversity godoc
// @Summary Submit application to the university
// @Description Forwards an admin-approved application and locks the student's documents
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/submit-university [post]
func (h *ApplicationHandler) SubmitToUniversity(c *gin.Context) {
	app, err := h.service.SubmitToUniversity(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// ReturnFromSchool godoc
// @Summary Record a university return
// @Description The university sent the application back; selected profile fields are unlocked for correction
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body object true "Return reason and fields to unlock"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/return-school [post]
func (h *ApplicationHandler) ReturnFromSchool(c *gin.Context) {
	var payload struct {
		Reason       string   `json:"reason" binding:"required"`
		UnlockFields []string `json:"unlock_fields"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "reason required"))
		return
	}

	app, err := h.service.ReturnFromSchool(c.Request.Context(), c.Param("id"), payload.Reason, payload.UnlockFields, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// OfferReceived godoc
// @Summary Record an offer from the university
// @Description Accepts the application and moves the student to offer_received
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/offer-received [post]
func (h *ApplicationHandler) OfferReceived(c *gin.Context) {
	app, err := h.service.RecordOfferReceived(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// Idle godoc
// @Summary List applications stuck in internal review
// @Tags Applications
// @Produce json
// @Param threshold_days query int false "Idle threshold in days"
// @Success 200 {object} response.Envelope
// @Router /applications/idle [get]
func (h *ApplicationHandler) Idle(c *gin.Context) {
	apps, err := h.service.IdleApplications(c.Request.Context(), queryInt(c, "threshold_days", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, apps, nil)
}
