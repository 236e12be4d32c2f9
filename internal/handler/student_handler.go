package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// StudentHandler wires HTTP endpoints to the student service.
type StudentHandler struct {
	service *service.StudentService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param status query string false "Filter by status"
// @Param assigned_staff_id query string false "Filter by assigned staff"
// @Param search query string false "Search by name or passport"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Status:          models.StudentStatus(c.Query("status")),
		AssignedStaffID: c.Query("assigned_staff_id"),
		Search:          c.Query("search"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "page_size", 20),
	}

	students, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Update godoc
// @Summary Update student profile
// @Description Applies field updates; on a locked profile only unlocked fields are applied, the rest are dropped silently
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body object true "Field updates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	student, err := h.service.Update(c.Request.Context(), c.Param("id"), updates, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// ChangeStatus godoc
// @Summary Change student status
// @Description Moves the student along the placement pipeline; invalid transitions are rejected
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body object true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/status [patch]
func (h *StudentHandler) ChangeStatus(c *gin.Context) {
	var payload struct {
		Status models.StudentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}

	student, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), payload.Status, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Lock godoc
// @Summary Lock student profile
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/lock [post]
func (h *StudentHandler) Lock(c *gin.Context) {
	actor := actorID(c)
	student, err := h.service.LockProfile(c.Request.Context(), c.Param("id"), actor, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Unlock godoc
// @Summary Unlock student profile
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/unlock [post]
func (h *StudentHandler) Unlock(c *gin.Context) {
	student, err := h.service.UnlockProfile(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// UnlockFields godoc
// @Summary Unlock specific profile fields
// @Description Replaces the unlocked field set on a locked profile
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body object true "Fields to unlock"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/unlock-fields [post]
func (h *StudentHandler) UnlockFields(c *gin.Context) {
	var payload struct {
		Fields []string `json:"fields" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "fields required"))
		return
	}

	student, err := h.service.UnlockFields(c.Request.Context(), c.Param("id"), payload.Fields, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// SetScholarship godoc
// @Summary Set scholarship type
// @Description Assigns the scholarship tier and reprices the student; repeat calls reprice again
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body object true "Scholarship type"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/scholarship [put]
func (h *StudentHandler) SetScholarship(c *gin.Context) {
	var payload struct {
		ScholarshipType models.ScholarshipType `json:"scholarship_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "scholarship_type required"))
		return
	}

	student, err := h.service.SetScholarshipType(c.Request.Context(), c.Param("id"), payload.ScholarshipType, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// FinalBalance godoc
// @Summary Get final balance
// @Description Service fee minus net deposit; zero while no scholarship is assigned
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/final-balance [get]
func (h *StudentHandler) FinalBalance(c *gin.Context) {
	balance, err := h.service.FinalBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"final_balance": balance}, nil)
}

// ReleaseOffer godoc
// @Summary Release offer to student
// @Description Moves the student to offer_released and un-hides offer documents
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/release-offer [post]
func (h *StudentHandler) ReleaseOffer(c *gin.Context) {
	student, err := h.service.ReleaseOffer(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}
