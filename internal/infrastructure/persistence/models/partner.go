package models

import (
	"github.com/bizledger/backend/internal/domain/partner"
)

// ContactModel is the persistence model for a customer or vendor.
type ContactModel struct {
	BaseModel
	Name  string              `gorm:"type:varchar(200);not null"`
	Kind  partner.ContactKind `gorm:"type:varchar(20);not null;index"`
	Email string              `gorm:"type:varchar(200)"`
	Phone string              `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact.
func (m *ContactModel) ToDomain() *partner.Contact {
	return &partner.Contact{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Kind:       m.Kind,
		Email:      m.Email,
		Phone:      m.Phone,
	}
}

// ContactModelFromDomain creates a persistence model from a domain Contact.
func ContactModelFromDomain(c *partner.Contact) *ContactModel {
	m := &ContactModel{Name: c.Name, Kind: c.Kind, Email: c.Email, Phone: c.Phone}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
