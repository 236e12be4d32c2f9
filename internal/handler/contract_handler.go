package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// ContractHandler wires HTTP endpoints to the contract service.
type ContractHandler struct {
	service *service.ContractService
}

// NewContractHandler creates a new handler.
func NewContractHandler(svc *service.ContractService) *ContractHandler {
	return &ContractHandler{service: svc}
}

// Create godoc
// @Summary Issue a contract
// @Description Issues a contract for signature; the expiry window comes from system settings
// @Tags Contracts
// @Accept json
// @Produce json
// @Param payload body object true "Student reference"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id required"))
		return
	}

	contract, err := h.service.Create(c.Request.Context(), payload.StudentID, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, contract)
}

// Get godoc
// @Summary Get contract
// @Tags Contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contracts/{id} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, contract, nil)
}

// Sign godoc
// @Summary Sign a contract
// @Description Records the signature exactly once; expired contracts cannot be signed
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param payload body object true "Signature data"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /contracts/{id}/sign [post]
func (h *ContractHandler) Sign(c *gin.Context) {
	var payload struct {
		SignatureData string `json:"signature_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "signature_data required"))
		return
	}

	contract, err := h.service.Sign(c.Request.Context(), c.Param("id"), payload.SignatureData, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, contract, nil)
}

// ExpireOverdue godoc
// @Summary Expire overdue contracts
// @Description Sweeps unsigned contracts past their expiry date
// @Tags Contracts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /contracts/expire-overdue [post]
func (h *ContractHandler) ExpireOverdue(c *gin.Context) {
	expired, err := h.service.ExpireOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"expired": expired}, nil)
}
