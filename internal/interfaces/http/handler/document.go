package handler

import (
	"net/http"
	"strings"

	financeapp "github.com/bizledger/backend/internal/application/finance"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// ReplayedHeader is set on a payment response that returned an earlier
// payment for the same idempotency key
const ReplayedHeader = "Idempotency-Replayed"

// DocumentHandler handles payable document endpoints: the document
// lifecycle, balances and payment recording
type DocumentHandler struct {
	BaseHandler
	documentService *financeapp.DocumentService
	reconciler      *financeapp.Reconciler
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *financeapp.DocumentService, reconciler *financeapp.Reconciler) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		reconciler:      reconciler,
	}
}

// DocumentRoutes creates the route group for document endpoints
func DocumentRoutes(h *DocumentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("documents", "/documents/:type")
	group.POST("", h.Create)
	group.GET("/:id", h.GetByID)
	group.POST("/:id/post", h.Post)
	group.POST("/:id/cancel", h.Cancel)
	group.GET("/:id/balance", h.GetBalance)
	group.GET("/:id/payments", h.ListPayments)
	group.POST("/:id/payments", h.RecordPayment)
	return group
}

// Create godoc
// @ID           createDocument
// @Summary      Create a payable document
// @Description  Create a draft sale order, purchase bill or invoice
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        type path string true "Document type" Enums(sale_order, purchase_bill, invoice)
// @Param        request body financeapp.CreateDocumentRequest true "Document creation request"
// @Success      201 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{type} [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docType, ok := h.ParseDocumentType(c)
	if !ok {
		return
	}
	var req financeapp.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.documentService.Create(c.Request.Context(), actor, docType, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @ID           getDocument
// @Summary      Get a payable document
// @Tags         documents
// @Produce      json
// @Param        type path string true "Document type" Enums(sale_order, purchase_bill, invoice)
// @Param        id path int true "Document ID"
// @Success      200 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{type}/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	docType, ok := h.ParseDocumentType(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.documentService.Get(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Post godoc
// @ID           postDocument
// @Summary      Post a document
// @Description  Move a draft document to posted. Payments on a posted document count toward its budget.
// @Tags         documents
// @Produce      json
// @Param        type path string true "Document type" Enums(sale_order, purchase_bill, invoice)
// @Param        id path int true "Document ID"
// @Success      200 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{type}/{id}/post [post]
func (h *DocumentHandler) Post(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docType, ok := h.ParseDocumentType(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.documentService.Post(c.Request.Context(), actor, docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelDocument
// @Summary      Cancel a document
// @Description  Cancel a document that has no payments recorded against it
// @Tags         documents
// @Produce      json
// @Param        type path string true "Document type" Enums(sale_order, purchase_bill, invoice)
// @Param        id path int true "Document ID"
// @Success      200 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{type}/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docType, ok := h.ParseDocumentType(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.documentService.Cancel(c.Request.Context(), actor, docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetBalance godoc
// @ID           getDocumentBalance
// @Summary      Get the outstanding balance of a document
// @Description  Total, paid sum and outstanding balance. signed_balance is total minus paid and goes negative on a tolerated overpayment.
// @Tags         documents
// @Produce      json
// @Param        type path string true "Document type" Enums(sale_order, purchase_bill, invoice)
// @Param        id path int true "Document ID"
// @Success      200 {object} APIResponse[financeapp.BalanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{type}/{id}/balance [get]
func (h *DocumentHandler) GetBalance(c *gin.Context) {
	docType, ok := h.ParseDocumentType(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.reconciler.GetBalance(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPayments godoc
// @ID           listDocumentPayments
// @Summary      List payments of a document
// @Description  Payments and adjustments recorded against a document, in recording order
// @Tags         documents
// @Produce      json
// @Param        type path string true "Document type" Enums(sale_order, purchase_bill, invoice)
// @Param        id path int true "Document ID"
// @Success      200 {object} APIResponse[[]financeapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{type}/{id}/payments [get]
func (h *DocumentHandler) ListPayments(c *gin.Context) {
	docType, ok := h.ParseDocumentType(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	payments, err := h.reconciler.ListPayments(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// RecordPayment godoc
// @ID           recordPayment
// @Summary      Record a payment against a document
// @Description  Apply a payment to a posted document. A payment that would push the paid sum past the document total is rejected with OVERPAYMENT.
// @Description  Retrying with the same idempotency key returns the original payment with replayed=true.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        type path string true "Document type" Enums(sale_order, purchase_bill, invoice)
// @Param        id path int true "Document ID"
// @Param        Idempotency-Key header string false "Idempotency key, alternative to the idempotency_key body field"
// @Param        request body financeapp.RecordPaymentRequest true "Payment request"
// @Success      201 {object} APIResponse[financeapp.PaymentResult]
// @Success      200 {object} APIResponse[financeapp.PaymentResult] "Replayed payment"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{type}/{id}/payments [post]
func (h *DocumentHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docType, ok := h.ParseDocumentType(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req financeapp.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)); key != "" {
		switch {
		case len(key) > 128:
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Idempotency-Key must be at most 128 characters")
			return
		case req.IdempotencyKey != "" && req.IdempotencyKey != key:
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Idempotency-Key header does not match idempotency_key")
			return
		}
		req.IdempotencyKey = key
	}

	result, err := h.reconciler.RecordPayment(c.Request.Context(), actor, req.ToPaymentInput(docType, id))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		c.Header(ReplayedHeader, "true")
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}
