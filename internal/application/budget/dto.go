package budget

import (
	"time"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Requests
// =============================================================================

// CreateBudgetRequest represents a request to create a budget event
type CreateBudgetRequest struct {
	EventName      string            `json:"event_name" binding:"required,min=1,max=200" example:"Diwali Sale 2025"`
	Type           string            `json:"type" binding:"required,budget_type" example:"income"`
	BudgetedAmount valueobject.Money `json:"budgeted_amount" binding:"money_nonnegative" swaggertype:"string" example:"50000.00"`
	StartDate      time.Time         `json:"start_date" binding:"required"`
	EndDate        time.Time         `json:"end_date" binding:"required"`
	Notes          string            `json:"notes" binding:"max=2000"`
}

// UpdateBudgetRequest represents a partial update of a budget event.
// Achieved amount is not editable.
type UpdateBudgetRequest struct {
	EventName      *string            `json:"event_name" binding:"omitempty,min=1,max=200"`
	Type           *string            `json:"type" binding:"omitempty,budget_type"`
	BudgetedAmount *valueobject.Money `json:"budgeted_amount" binding:"omitempty,money_nonnegative" swaggertype:"string"`
	StartDate      *time.Time         `json:"start_date"`
	EndDate        *time.Time         `json:"end_date"`
	Notes          *string            `json:"notes" binding:"omitempty,max=2000"`
}

// ReviseBudgetRequest represents a request to record a budget revision
type ReviseBudgetRequest struct {
	RevisedBudgetedAmount valueobject.Money `json:"revised_budgeted_amount" binding:"money_nonnegative" swaggertype:"string" example:"60000.00"`
	RevisionReason        string            `json:"revision_reason" binding:"required,max=1000" example:"Scope change"`
}

// =============================================================================
// Responses
// =============================================================================

// BudgetResponse is the reporting view of a budget event
type BudgetResponse struct {
	ID                 int64             `json:"id"`
	EventName          string            `json:"event_name"`
	Type               string            `json:"type"`
	BudgetedAmount     valueobject.Money `json:"budgeted_amount" swaggertype:"string"`
	AchievedAmount     valueobject.Money `json:"achieved_amount" swaggertype:"string"`
	OriginalAmount     valueobject.Money `json:"original_amount" swaggertype:"string"`
	EffectiveAmount    valueobject.Money `json:"effective_amount" swaggertype:"string"`
	PercentageAchieved decimal.Decimal   `json:"percentage_achieved" swaggertype:"string"`
	AmountToAchieve    valueobject.Money `json:"amount_to_achieve" swaggertype:"string"`
	Status             string            `json:"status"`
	RevisionCount      int64             `json:"revision_count"`
	LatestRevision     *RevisionResponse `json:"latest_revision,omitempty"`
	StartDate          time.Time         `json:"start_date"`
	EndDate            time.Time         `json:"end_date"`
	Notes              string            `json:"notes,omitempty"`
	CreatedBy          string            `json:"created_by,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Version            int               `json:"version"`
}

// RevisionResponse represents a budget revision
type RevisionResponse struct {
	ID                    int64             `json:"id"`
	BudgetID              int64             `json:"budget_id"`
	EventName             string            `json:"event_name"`
	Type                  string            `json:"type"`
	OriginalBudgetAmount  valueobject.Money `json:"original_budget_amount" swaggertype:"string"`
	RevisedBudgetedAmount valueobject.Money `json:"revised_budgeted_amount" swaggertype:"string"`
	Delta                 valueobject.Money `json:"delta" swaggertype:"string"`
	RevisionReason        string            `json:"revision_reason"`
	CreatedBy             string            `json:"created_by,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// ReviseBudgetResult is returned by Revise
type ReviseBudgetResult struct {
	Revision RevisionResponse `json:"revision"`
	Budget   BudgetResponse   `json:"budget"`
}

// ToBudgetResponse converts a report to its response form
func ToBudgetResponse(r budget.Report) BudgetResponse {
	b := r.Budget
	resp := BudgetResponse{
		ID:                 b.ID,
		EventName:          b.EventName,
		Type:               string(b.Type),
		BudgetedAmount:     b.BudgetedAmount,
		AchievedAmount:     b.AchievedAmount,
		OriginalAmount:     r.OriginalAmount,
		EffectiveAmount:    r.EffectiveAmount,
		PercentageAchieved: r.Metrics.PercentageAchieved,
		AmountToAchieve:    r.Metrics.AmountToAchieve,
		Status:             string(r.Status),
		RevisionCount:      r.RevisionCount,
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		Notes:              b.Notes,
		CreatedBy:          b.CreatedBy,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
	if r.LatestRevision != nil {
		rev := ToRevisionResponse(r.LatestRevision)
		resp.LatestRevision = &rev
	}
	return resp
}

// ToRevisionResponse converts a domain revision to its response form
func ToRevisionResponse(rev *budget.BudgetRevision) RevisionResponse {
	return RevisionResponse{
		ID:                    rev.ID,
		BudgetID:              rev.BudgetID,
		EventName:             rev.EventName,
		Type:                  string(rev.Type),
		OriginalBudgetAmount:  rev.OriginalBudgetAmount,
		RevisedBudgetedAmount: rev.RevisedBudgetedAmount,
		Delta:                 rev.Delta(),
		RevisionReason:        rev.RevisionReason,
		CreatedBy:             rev.CreatedBy,
		CreatedAt:             rev.CreatedAt,
	}
}

// ToRevisionResponses converts a list of domain revisions
func ToRevisionResponses(revs []budget.BudgetRevision) []RevisionResponse {
	out := make([]RevisionResponse, len(revs))
	for i := range revs {
		out[i] = ToRevisionResponse(&revs[i])
	}
	return out
}
