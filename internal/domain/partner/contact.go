package partner

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bizledger/backend/internal/domain/shared"
)

// ContactKind says which side of a document a contact sits on
type ContactKind string

const (
	ContactKindCustomer ContactKind = "customer"
	ContactKindVendor   ContactKind = "vendor"
)

// IsValid checks if the kind is a valid ContactKind
func (k ContactKind) IsValid() bool {
	return k == ContactKindCustomer || k == ContactKindVendor
}

const maxNameLength = 200

// Contact is a customer or vendor referenced by payable documents
type Contact struct {
	shared.BaseEntity
	Name  string
	Kind  ContactKind
	Email string
	Phone string
}

// NewContact creates a new contact
func NewContact(name string, kind ContactKind, email, phone string) (*Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Contact name cannot be empty")
	}
	if len(name) > maxNameLength {
		return nil, shared.NewValidationError(fmt.Sprintf("Contact name cannot exceed %d characters", maxNameLength))
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Contact kind must be customer or vendor, got %q", kind))
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, shared.NewValidationError(fmt.Sprintf("Invalid email %q", email))
		}
	}
	return &Contact{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Kind:       kind,
		Email:      email,
		Phone:      strings.TrimSpace(phone),
	}, nil
}

// DisplayName is the name printed on receipts
func (c *Contact) DisplayName() string {
	if c == nil || c.Name == "" {
		return "Unknown party"
	}
	return c.Name
}

// ContactRepository persists contacts
type ContactRepository interface {
	// FindByID returns shared.ErrNotFound for an unknown id
	FindByID(ctx context.Context, id int64) (*Contact, error)
	Create(ctx context.Context, c *Contact) error
}
