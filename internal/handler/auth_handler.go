package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
	staff   *service.StaffService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, staff *service.StaffService) *AuthHandler {
	return &AuthHandler{service: svc, staff: staff}
}

// Login godoc
// @Summary Authenticate staff
// @Description Authenticate staff by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Get current staff
// @Description Returns the authenticated staff member's record
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	staff, err := h.staff.Get(c.Request.Context(), claims.StaffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, staff, nil)
}
