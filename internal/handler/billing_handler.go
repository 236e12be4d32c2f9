package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/service"
	appErrors "github.com/edupath/placement-api/pkg/errors"
	"github.com/edupath/placement-api/pkg/response"
)

// BillingHandler wires HTTP endpoints to invoices and the ledger.
type BillingHandler struct {
	billing *service.BillingService
	ledger  *service.LedgerService
}

// NewBillingHandler creates a new handler.
func NewBillingHandler(billing *service.BillingService, ledger *service.LedgerService) *BillingHandler {
	return &BillingHandler{billing: billing, ledger: ledger}
}

// CreateInvoice godoc
// @Summary Create invoice
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body service.CreateInvoiceRequest true "Invoice payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /invoices [post]
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invoice payload"))
		return
	}

	invoice, err := h.billing.CreateInvoice(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, invoice)
}

// GetInvoice godoc
// @Summary Get invoice
// @Tags Billing
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.billing.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, invoice, nil)
}

// ListInvoices godoc
// @Summary List a student's invoices
// @Tags Billing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.billing.ListInvoices(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, invoices, nil)
}

// PayInvoice godoc
// @Summary Settle an invoice payment
// @Description Updates the student's paid totals, appends a ledger credit and triggers commission when the deposit threshold is crossed
// @Tags Billing
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /invoices/{id}/pay [post]
func (h *BillingHandler) PayInvoice(c *gin.Context) {
	invoice, err := h.billing.PayInvoice(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, invoice, nil)
}

// RefundInvoice godoc
// @Summary Refund a paid invoice
// @Description Marks the invoice refunded and appends a reversing ledger debit; the original entry is never modified
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payload body object true "Refund reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /invoices/{id}/refund [post]
func (h *BillingHandler) RefundInvoice(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "reason required"))
		return
	}

	invoice, err := h.billing.RefundInvoice(c.Request.Context(), c.Param("id"), payload.Reason, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, invoice, nil)
}

// LedgerEntries godoc
// @Summary List a student's ledger entries
// @Description Append-only financial history, oldest first
// @Tags Billing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/ledger [get]
func (h *BillingHandler) LedgerEntries(c *gin.Context) {
	entries, err := h.ledger.Entries(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}

// LedgerBalance godoc
// @Summary Get a student's ledger balance
// @Description Sum of credits minus debits
// @Tags Billing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/ledger/balance [get]
func (h *BillingHandler) LedgerBalance(c *gin.Context) {
	balance, err := h.ledger.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"balance": balance}, nil)
}
