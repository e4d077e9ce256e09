package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// BudgetType tells whether a budget tracks money coming in or going out
type BudgetType string

const (
	BudgetTypeIncome  BudgetType = "income"
	BudgetTypeExpense BudgetType = "expense"
)

// IsValid checks if the type is a valid BudgetType
func (t BudgetType) IsValid() bool {
	return t == BudgetTypeIncome || t == BudgetTypeExpense
}

// String returns the string representation of BudgetType
func (t BudgetType) String() string {
	return string(t)
}

const maxEventNameLength = 200

// BudgetEvent is a tracked income or expense target for a named business
// event. BudgetedAmount is the target; AchievedAmount is the running total of
// qualifying payments against documents linked to this budget and only moves
// through RecordAchievement.
type BudgetEvent struct {
	shared.BaseAggregateRoot
	EventName      string
	Type           BudgetType
	BudgetedAmount valueobject.Money
	AchievedAmount valueobject.Money
	StartDate      time.Time
	EndDate        time.Time
	Notes          string
	CreatedBy      string
}

// NewBudgetEvent creates a budget with zero achievement
func NewBudgetEvent(
	eventName string,
	budgetType BudgetType,
	budgetedAmount valueobject.Money,
	startDate, endDate time.Time,
	notes string,
	createdBy string,
) (*BudgetEvent, error) {
	b := &BudgetEvent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AchievedAmount:    valueobject.Zero(),
		CreatedBy:         createdBy,
	}
	if err := b.apply(eventName, budgetType, budgetedAmount, startDate, endDate, notes); err != nil {
		return nil, err
	}
	return b, nil
}

// Update edits the descriptive fields and the target amount. This is the only
// path, besides a propagating revision, that changes BudgetedAmount.
func (b *BudgetEvent) Update(
	eventName string,
	budgetType BudgetType,
	budgetedAmount valueobject.Money,
	startDate, endDate time.Time,
	notes string,
) error {
	if err := b.apply(eventName, budgetType, budgetedAmount, startDate, endDate, notes); err != nil {
		return err
	}
	b.Touch()
	b.IncrementVersion()
	return nil
}

func (b *BudgetEvent) apply(
	eventName string,
	budgetType BudgetType,
	budgetedAmount valueobject.Money,
	startDate, endDate time.Time,
	notes string,
) error {
	eventName = strings.TrimSpace(eventName)
	if eventName == "" {
		return shared.NewValidationError("Event name cannot be empty")
	}
	if len(eventName) > maxEventNameLength {
		return shared.NewValidationError(fmt.Sprintf("Event name cannot exceed %d characters", maxEventNameLength))
	}
	if !budgetType.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("Budget type must be income or expense, got %q", budgetType))
	}
	if budgetedAmount.IsNegative() {
		return shared.NewValidationError("Budgeted amount cannot be negative")
	}
	if startDate.IsZero() || endDate.IsZero() {
		return shared.NewValidationError("Start and end dates are required")
	}
	if !startDate.Before(endDate) {
		return shared.NewValidationError("Start date must be before end date")
	}

	b.EventName = eventName
	b.Type = budgetType
	b.BudgetedAmount = budgetedAmount
	b.StartDate = startDate
	b.EndDate = endDate
	b.Notes = strings.TrimSpace(notes)
	return nil
}

// RecordAchievement adds a signed delta to AchievedAmount. A negative delta
// reverses an earlier posting; it may not drive the total below zero.
func (b *BudgetEvent) RecordAchievement(delta valueobject.Money, source string) error {
	if delta.IsZero() {
		return nil
	}
	next := b.AchievedAmount.Add(delta)
	if next.IsNegative() {
		return shared.NewValidationError(fmt.Sprintf(
			"Achievement reversal of %s exceeds achieved amount %s", delta.Abs(), b.AchievedAmount))
	}

	previous := b.AchievedAmount
	b.AchievedAmount = next
	b.Touch()
	b.IncrementVersion()

	b.AddDomainEvent(NewAchievementRecordedEvent(b, previous, delta, source))
	return nil
}

// ApplyRevision overwrites the live target with a revised amount. Used only
// when revisions are configured to propagate.
func (b *BudgetEvent) ApplyRevision(rev *BudgetRevision) {
	b.BudgetedAmount = rev.RevisedBudgetedAmount
	b.Touch()
	b.IncrementVersion()
}

// Metrics derives percentage achieved and amount to achieve against the
// budget's own target.
func (b *BudgetEvent) Metrics() Metrics {
	return ComputeMetrics(b.BudgetedAmount, b.AchievedAmount)
}
