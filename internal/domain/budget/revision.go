package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// RevisionPropagation decides whether a revision also rewrites the live
// budgeted amount.
type RevisionPropagation string

const (
	// RevisionAuditOnly records revisions as an overlay; BudgetedAmount is untouched
	RevisionAuditOnly RevisionPropagation = "audit"
	// RevisionPropagate also sets BudgetedAmount to the revised amount
	RevisionPropagate RevisionPropagation = "propagate"
)

// IsValid reports whether p is a known propagation mode
func (p RevisionPropagation) IsValid() bool {
	return p == RevisionAuditOnly || p == RevisionPropagate
}

const maxReasonLength = 1000

// BudgetRevision is an append-only audit record of a change to a budget's
// target. EventName, Type and OriginalBudgetAmount are snapshots taken when
// the revision is created and are never recomputed.
type BudgetRevision struct {
	shared.BaseEntity
	BudgetID              int64
	EventName             string
	Type                  BudgetType
	OriginalBudgetAmount  valueobject.Money
	RevisedBudgetedAmount valueobject.Money
	RevisionReason        string
	CreatedBy             string
}

// NewBudgetRevision snapshots b and records the revised amount
func NewBudgetRevision(b *BudgetEvent, revisedAmount valueobject.Money, reason, createdBy string) (*BudgetRevision, error) {
	if b == nil {
		return nil, shared.NewValidationError("Budget is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewValidationError("Revision reason cannot be empty")
	}
	if len(reason) > maxReasonLength {
		return nil, shared.NewValidationError(fmt.Sprintf("Revision reason cannot exceed %d characters", maxReasonLength))
	}
	if revisedAmount.IsNegative() {
		return nil, shared.NewValidationError("Revised amount cannot be negative")
	}

	return &BudgetRevision{
		BaseEntity:            shared.NewBaseEntity(),
		BudgetID:              b.ID,
		EventName:             b.EventName,
		Type:                  b.Type,
		OriginalBudgetAmount:  b.BudgetedAmount,
		RevisedBudgetedAmount: revisedAmount,
		RevisionReason:        reason,
		CreatedBy:             createdBy,
	}, nil
}

// Delta is the change the revision makes to the target
func (r *BudgetRevision) Delta() valueobject.Money {
	return r.RevisedBudgetedAmount.Subtract(r.OriginalBudgetAmount)
}

// EffectiveAmount is the target reporting views use: the latest revision's
// revised amount when one exists, else the budget's own amount.
func EffectiveAmount(b *BudgetEvent, latest *BudgetRevision) valueobject.Money {
	if latest != nil {
		return latest.RevisedBudgetedAmount
	}
	return b.BudgetedAmount
}

// Report is the reporting view of a budget, with metrics computed against
// the effective amount.
type Report struct {
	Budget          *BudgetEvent
	LatestRevision  *BudgetRevision
	OriginalAmount  valueobject.Money
	EffectiveAmount valueobject.Money
	Metrics         Metrics
	Status          Status
	RevisionCount   int64
	GeneratedAt     time.Time
}

// BuildReport derives the reporting view from a budget and its revision history summary
func BuildReport(b *BudgetEvent, latest *BudgetRevision, revisionCount int64) Report {
	original := b.BudgetedAmount
	if latest != nil {
		original = latest.OriginalBudgetAmount
	}
	effective := EffectiveAmount(b, latest)
	metrics := ComputeMetrics(effective, b.AchievedAmount)
	return Report{
		Budget:          b,
		LatestRevision:  latest,
		OriginalAmount:  original,
		EffectiveAmount: effective,
		Metrics:         metrics,
		Status:          ClassifyStatus(metrics.PercentageAchieved),
		RevisionCount:   revisionCount,
		GeneratedAt:     time.Now(),
	}
}
