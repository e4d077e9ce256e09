package handler

import (
	"fmt"
	"net/http"
	"path"

	financeapp "github.com/bizledger/backend/internal/application/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment lookups, adjustments and receipts
type PaymentHandler struct {
	BaseHandler
	reconciler     *financeapp.Reconciler
	receiptService *financeapp.ReceiptService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(reconciler *financeapp.Reconciler, receiptService *financeapp.ReceiptService) *PaymentHandler {
	return &PaymentHandler{
		reconciler:     reconciler,
		receiptService: receiptService,
	}
}

// PaymentRoutes creates the route group for payment endpoints
func PaymentRoutes(h *PaymentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("payments", "/payments")
	group.GET("/by-key/:key", h.GetByIdempotencyKey)
	group.POST("/:id/adjustments", middleware.RequireAdmin(), h.RecordAdjustment)
	group.GET("/:id/receipt", h.GetReceipt)
	group.GET("/:id/receipt.pdf", h.DownloadReceiptPDF)
	group.POST("/:id/receipt/archive", h.ArchiveReceipt)
	return group
}

// GetByIdempotencyKey godoc
// @ID           getPaymentByIdempotencyKey
// @Summary      Find a payment by idempotency key
// @Description  Lets a client that lost a response check whether its payment was recorded
// @Tags         payments
// @Produce      json
// @Param        key path string true "Idempotency key"
// @Success      200 {object} APIResponse[financeapp.PaymentResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/by-key/{key} [get]
func (h *PaymentHandler) GetByIdempotencyKey(c *gin.Context) {
	key := c.Param("key")
	payment, err := h.reconciler.FindByIdempotencyKey(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if payment == nil {
		h.HandleError(c, shared.NewNotFoundError(fmt.Sprintf("No payment recorded under idempotency key %q", key)))
		return
	}
	h.Success(c, payment)
}

// RecordAdjustment godoc
// @ID           recordPaymentAdjustment
// @Summary      Record an adjustment against a payment
// @Description  Append a negative entry that reverses part of a payment. Payments are never edited in place.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path int true "Payment ID"
// @Param        request body financeapp.RecordAdjustmentRequest true "Adjustment request"
// @Success      201 {object} APIResponse[financeapp.PaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/adjustments [post]
func (h *PaymentHandler) RecordAdjustment(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req financeapp.RecordAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.reconciler.RecordAdjustment(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetReceipt godoc
// @ID           getPaymentReceipt
// @Summary      Get a payment receipt
// @Description  Receipt data for a payment. With format=html the rendered receipt page is returned instead.
// @Tags         payments
// @Produce      json
// @Produce      html
// @Param        id path int true "Payment ID"
// @Param        format query string false "Output format" Enums(json, html) default(json)
// @Success      200 {object} APIResponse[finance.ReceiptView]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/receipt [get]
func (h *PaymentHandler) GetReceipt(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if c.Query("format") == "html" {
		page, err := h.receiptService.RenderHTML(c.Request.Context(), id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	view, err := h.receiptService.BuildReceiptView(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// DownloadReceiptPDF godoc
// @ID           downloadPaymentReceiptPdf
// @Summary      Download a payment receipt as PDF
// @Description  Available when receipt printing is enabled
// @Tags         payments
// @Produce      application/pdf
// @Param        id path int true "Payment ID"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/receipt.pdf [get]
func (h *PaymentHandler) DownloadReceiptPDF(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	pdf, view, err := h.receiptService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := path.Base(financeapp.ReceiptObjectKey(view))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ArchiveReceipt godoc
// @ID           archivePaymentReceipt
// @Summary      Archive a payment receipt
// @Description  Render the receipt PDF, store it in object storage and return a temporary download link
// @Tags         payments
// @Produce      json
// @Param        id path int true "Payment ID"
// @Success      201 {object} APIResponse[financeapp.ArchivedReceipt]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/receipt/archive [post]
func (h *PaymentHandler) ArchiveReceipt(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	archived, err := h.receiptService.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, archived)
}
