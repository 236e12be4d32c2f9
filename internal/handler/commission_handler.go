package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/service"
	"github.com/edupath/placement-api/pkg/response"
)

// CommissionHandler wires HTTP endpoints to the commission service.
type CommissionHandler struct {
	service *service.CommissionService
}

// NewCommissionHandler creates a new handler.
func NewCommissionHandler(svc *service.CommissionService) *CommissionHandler {
	return &CommissionHandler{service: svc}
}

// Get godoc
// @Summary Get commission
// @Tags Commissions
// @Produce json
// @Param id path string true "Commission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /commissions/{id} [get]
func (h *CommissionHandler) Get(c *gin.Context) {
	commission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, commission, nil)
}

// ListByStaff godoc
// @Summary List a staff member's commissions
// @Tags Commissions
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/commissions [get]
func (h *CommissionHandler) ListByStaff(c *gin.Context) {
	commissions, err := h.service.ListByStaff(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, commissions, nil)
}

// Pay godoc
// @Summary Pay a pending commission
// @Description Moves the amount from the staff member's pending bucket to the paid bucket
// @Tags Commissions
// @Produce json
// @Param id path string true "Commission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /commissions/{id}/pay [post]
func (h *CommissionHandler) Pay(c *gin.Context) {
	commission, err := h.service.Pay(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, commission, nil)
}

// Void godoc
// @Summary Void a commission
// @Description Voids a pending commission; a paid one becomes a clawback with a negative adjustment record
// @Tags Commissions
// @Accept json
// @Produce json
// @Param id path string true "Commission ID"
// @Param payload body object false "Void reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /commissions/{id}/void [post]
func (h *CommissionHandler) Void(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&payload)

	commission, err := h.service.Void(c.Request.Context(), c.Param("id"), payload.Reason, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if commission == nil {
		response.NoContent(c)
		return
	}

	response.JSON(c, http.StatusOK, commission, nil)
}
