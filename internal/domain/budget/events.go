package budget

import (
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

const (
	EventTypeAchievementRecorded = "BudgetAchievementRecorded"
	EventTypeBudgetRevised       = "BudgetRevised"

	aggregateTypeBudget = "BudgetEvent"
)

// AchievementRecordedEvent is raised whenever achieved_amount moves
type AchievementRecordedEvent struct {
	shared.BaseDomainEvent
	BudgetID         int64             `json:"budget_id"`
	Delta            valueobject.Money `json:"delta"`
	PreviousAchieved valueobject.Money `json:"previous_achieved"`
	AchievedAmount   valueobject.Money `json:"achieved_amount"`
	Source           string            `json:"source"`
}

// NewAchievementRecordedEvent creates a new AchievementRecordedEvent
func NewAchievementRecordedEvent(b *BudgetEvent, previous, delta valueobject.Money, source string) *AchievementRecordedEvent {
	return &AchievementRecordedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeAchievementRecorded, aggregateTypeBudget, b.ID),
		BudgetID:         b.ID,
		Delta:            delta,
		PreviousAchieved: previous,
		AchievedAmount:   b.AchievedAmount,
		Source:           source,
	}
}

// RevisedEvent is raised when a revision is recorded
type RevisedEvent struct {
	shared.BaseDomainEvent
	BudgetID              int64               `json:"budget_id"`
	RevisionID            int64               `json:"revision_id"`
	OriginalBudgetAmount  valueobject.Money   `json:"original_budget_amount"`
	RevisedBudgetedAmount valueobject.Money   `json:"revised_budgeted_amount"`
	Reason                string              `json:"reason"`
	Propagation           RevisionPropagation `json:"propagation"`
}

// NewRevisedEvent creates a new RevisedEvent
func NewRevisedEvent(rev *BudgetRevision, propagation RevisionPropagation) *RevisedEvent {
	return &RevisedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeBudgetRevised, aggregateTypeBudget, rev.BudgetID),
		BudgetID:              rev.BudgetID,
		RevisionID:            rev.ID,
		OriginalBudgetAmount:  rev.OriginalBudgetAmount,
		RevisedBudgetedAmount: rev.RevisedBudgetedAmount,
		Reason:                rev.RevisionReason,
		Propagation:           propagation,
	}
}
