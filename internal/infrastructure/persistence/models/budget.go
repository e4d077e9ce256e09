package models

import (
	"time"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// BudgetEventModel is the persistence model for the BudgetEvent aggregate root.
type BudgetEventModel struct {
	AggregateModel
	EventName      string            `gorm:"type:varchar(200);not null"`
	Type           budget.BudgetType `gorm:"type:varchar(20);not null;index"`
	BudgetedAmount valueobject.Money `gorm:"type:decimal(18,2);not null"`
	AchievedAmount valueobject.Money `gorm:"type:decimal(18,2);not null"`
	StartDate      time.Time         `gorm:"not null"`
	EndDate        time.Time         `gorm:"not null"`
	Notes          string            `gorm:"type:text"`
	CreatedBy      string            `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (BudgetEventModel) TableName() string {
	return "budget_events"
}

// ToDomain converts the persistence model to a domain BudgetEvent.
func (m *BudgetEventModel) ToDomain() *budget.BudgetEvent {
	return &budget.BudgetEvent{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		EventName:         m.EventName,
		Type:              m.Type,
		BudgetedAmount:    m.BudgetedAmount,
		AchievedAmount:    m.AchievedAmount,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
	}
}

// BudgetEventModelFromDomain creates a persistence model from a domain BudgetEvent.
func BudgetEventModelFromDomain(b *budget.BudgetEvent) *BudgetEventModel {
	m := &BudgetEventModel{
		EventName:      b.EventName,
		Type:           b.Type,
		BudgetedAmount: b.BudgetedAmount,
		AchievedAmount: b.AchievedAmount,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		Notes:          b.Notes,
		CreatedBy:      b.CreatedBy,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}

// BudgetRevisionModel is the persistence model for an append-only BudgetRevision.
type BudgetRevisionModel struct {
	BaseModel
	BudgetID              int64             `gorm:"not null;index:idx_budget_revisions_budget_created,priority:1"`
	EventName             string            `gorm:"type:varchar(200);not null"`
	Type                  budget.BudgetType `gorm:"type:varchar(20);not null"`
	OriginalBudgetAmount  valueobject.Money `gorm:"type:decimal(18,2);not null"`
	RevisedBudgetedAmount valueobject.Money `gorm:"type:decimal(18,2);not null"`
	RevisionReason        string            `gorm:"type:text;not null"`
	CreatedBy             string            `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (BudgetRevisionModel) TableName() string {
	return "budget_revisions"
}

// ToDomain converts the persistence model to a domain BudgetRevision.
func (m *BudgetRevisionModel) ToDomain() *budget.BudgetRevision {
	return &budget.BudgetRevision{
		BaseEntity:            m.BaseModel.ToDomain(),
		BudgetID:              m.BudgetID,
		EventName:             m.EventName,
		Type:                  m.Type,
		OriginalBudgetAmount:  m.OriginalBudgetAmount,
		RevisedBudgetedAmount: m.RevisedBudgetedAmount,
		RevisionReason:        m.RevisionReason,
		CreatedBy:             m.CreatedBy,
	}
}

// BudgetRevisionModelFromDomain creates a persistence model from a domain BudgetRevision.
func BudgetRevisionModelFromDomain(r *budget.BudgetRevision) *BudgetRevisionModel {
	m := &BudgetRevisionModel{
		BudgetID:              r.BudgetID,
		EventName:             r.EventName,
		Type:                  r.Type,
		OriginalBudgetAmount:  r.OriginalBudgetAmount,
		RevisedBudgetedAmount: r.RevisedBudgetedAmount,
		RevisionReason:        r.RevisionReason,
		CreatedBy:             r.CreatedBy,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
