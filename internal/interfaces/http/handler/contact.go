package handler

import (
	partnerapp "github.com/bizledger/backend/internal/application/partner"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// ContactHandler handles counterparty endpoints
type ContactHandler struct {
	BaseHandler
	contactService *partnerapp.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *partnerapp.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRoutes creates the route group for contact endpoints
func ContactRoutes(h *ContactHandler) *router.DomainGroup {
	group := router.NewDomainGroup("contacts", "/contacts")
	group.POST("", h.Create)
	group.GET("/:id", h.GetByID)
	return group
}

// Create godoc
// @ID           createContact
// @Summary      Create a contact
// @Description  Create a customer or vendor that documents can reference
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.CreateContactRequest true "Contact creation request"
// @Success      201 {object} APIResponse[partnerapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	var req partnerapp.CreateContactRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.contactService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @ID           getContact
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Param        id path int true "Contact ID"
// @Success      200 {object} APIResponse[partnerapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contacts/{id} [get]
func (h *ContactHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.contactService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
