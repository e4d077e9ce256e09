package partner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
)

// CreateContactRequest represents a request to create a customer or vendor
type CreateContactRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200" example:"Sharma Traders"`
	Kind  string `json:"kind" binding:"required,oneof=customer vendor" example:"customer"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" binding:"max=50"`
}

// ContactResponse represents a contact
type ContactResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToContactResponse converts a domain contact to its response form
func ToContactResponse(c *partner.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      string(c.Kind),
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ContactService handles the counterparties referenced by documents
type ContactService struct {
	contacts partner.ContactRepository
}

// NewContactService creates a new ContactService
func NewContactService(contacts partner.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts}
}

// Create creates a new contact
func (s *ContactService) Create(ctx context.Context, req CreateContactRequest) (*ContactResponse, error) {
	c, err := partner.NewContact(req.Name, partner.ContactKind(req.Kind), req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := ToContactResponse(c)
	return &resp, nil
}

// Get returns a contact by ID
func (s *ContactService) Get(ctx context.Context, id int64) (*ContactResponse, error) {
	c, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Contact %d not found", id))
		}
		return nil, err
	}
	resp := ToContactResponse(c)
	return &resp, nil
}
