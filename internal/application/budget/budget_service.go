package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BudgetService handles budget events and their revision history
type BudgetService struct {
	budgets        budget.BudgetEventRepository
	revisions      budget.BudgetRevisionRepository
	scope          TransactionScope
	propagation    budget.RevisionPropagation
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ReconciliationMetrics
}

// NewBudgetService creates a new BudgetService. An unknown propagation mode
// falls back to audit-only revisions.
func NewBudgetService(
	budgets budget.BudgetEventRepository,
	revisions budget.BudgetRevisionRepository,
	scope TransactionScope,
	propagation budget.RevisionPropagation,
) *BudgetService {
	if !propagation.IsValid() {
		propagation = budget.RevisionAuditOnly
	}
	return &BudgetService{
		budgets:     budgets,
		revisions:   revisions,
		scope:       scope,
		propagation: propagation,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BudgetService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder (optional)
func (s *BudgetService) SetMetrics(metrics *telemetry.ReconciliationMetrics) {
	s.metrics = metrics
}

// Propagation returns the configured revision propagation mode
func (s *BudgetService) Propagation() budget.RevisionPropagation {
	return s.propagation
}

// Create creates a budget event with zero achievement. Admin only.
func (s *BudgetService) Create(ctx context.Context, actor shared.Actor, req CreateBudgetRequest) (*BudgetResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	b, err := budget.NewBudgetEvent(
		req.EventName,
		budget.BudgetType(req.Type),
		req.BudgetedAmount,
		req.StartDate,
		req.EndDate,
		req.Notes,
		actor.ID,
	)
	if err != nil {
		return nil, err
	}
	if err := s.budgets.Create(ctx, b); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("budget created",
		zap.Int64("budget_id", b.ID),
		zap.String("type", string(b.Type)),
		zap.String("budgeted_amount", b.BudgetedAmount.String()),
	)
	resp := ToBudgetResponse(budget.BuildReport(b, nil, 0))
	return &resp, nil
}

// Update edits a budget's descriptive fields and target amount. Admin only.
func (s *BudgetService) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateBudgetRequest) (*BudgetResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	var updated *budget.BudgetEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		b, err := s.lockBudget(ctx, repos.BudgetRepo(), id)
		if err != nil {
			return err
		}

		name, budgetType, amount := b.EventName, b.Type, b.BudgetedAmount
		start, end, notes := b.StartDate, b.EndDate, b.Notes
		if req.EventName != nil {
			name = *req.EventName
		}
		if req.Type != nil {
			budgetType = budget.BudgetType(*req.Type)
		}
		if req.BudgetedAmount != nil {
			amount = *req.BudgetedAmount
		}
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		if req.Notes != nil {
			notes = *req.Notes
		}

		if err := b.Update(name, budgetType, amount, start, end, notes); err != nil {
			return err
		}
		if err := repos.BudgetRepo().SaveWithLock(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.report(ctx, updated)
}

// Get returns the reporting view of a budget
func (s *BudgetService) Get(ctx context.Context, id int64) (*BudgetResponse, error) {
	b, err := s.budgets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Budget event %d not found", id))
		}
		return nil, err
	}
	return s.report(ctx, b)
}

// List returns a page of budget reports
func (s *BudgetService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[BudgetResponse], error) {
	budgets, total, err := s.budgets.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BudgetResponse, 0, len(budgets))
	for i := range budgets {
		resp, err := s.report(ctx, &budgets[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *resp)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Revise records a new target for a budget with a mandatory reason. The
// revision snapshots the current budgeted amount. Whether the live amount
// follows the revision depends on the configured propagation. Admin only.
func (s *BudgetService) Revise(ctx context.Context, actor shared.Actor, id int64, req ReviseBudgetRequest) (*ReviseBudgetResult, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "revise")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrBudgetID, id, "budget.propagation", string(s.propagation))

	var rev *budget.BudgetRevision
	var b *budget.BudgetEvent
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("revise_budget", nil), func(c context.Context) {
		opErr = s.scope.Execute(c, func(repos TransactionalRepositories) error {
			found, err := repos.BudgetRepo().FindByIDForUpdate(c, id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewValidationError(fmt.Sprintf("Budget event %d does not exist", id)).WithCause(err)
				}
				return err
			}

			r, err := budget.NewBudgetRevision(found, req.RevisedBudgetedAmount, req.RevisionReason, actor.ID)
			if err != nil {
				return err
			}
			if err := repos.RevisionRepo().Create(c, r); err != nil {
				return err
			}
			if s.propagation == budget.RevisionPropagate {
				found.ApplyRevision(r)
				if err := repos.BudgetRepo().SaveWithLock(c, found); err != nil {
					return err
				}
			}
			rev, b = r, found
			return nil
		})
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}

	s.metrics.RecordRevision(ctx, string(s.propagation))
	s.publish(ctx, []shared.DomainEvent{budget.NewRevisedEvent(rev, s.propagation)})
	logger.L(ctx).Info("budget revised",
		zap.Int64("budget_id", id),
		zap.Int64("revision_id", rev.ID),
		zap.String("original_amount", rev.OriginalBudgetAmount.String()),
		zap.String("revised_amount", rev.RevisedBudgetedAmount.String()),
		zap.String("propagation", string(s.propagation)),
	)
	telemetry.SetOK(span)

	report, err := s.report(ctx, b)
	if err != nil {
		return nil, err
	}
	return &ReviseBudgetResult{Revision: ToRevisionResponse(rev), Budget: *report}, nil
}

// LatestRevision returns the most recent revision of a budget, or nil when
// it has none
func (s *BudgetService) LatestRevision(ctx context.Context, id int64) (*RevisionResponse, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}
	rev, err := s.revisions.FindLatestByBudget(ctx, id)
	if err != nil || rev == nil {
		return nil, err
	}
	resp := ToRevisionResponse(rev)
	return &resp, nil
}

// ListRevisions returns the full revision history of a budget, oldest first
func (s *BudgetService) ListRevisions(ctx context.Context, id int64) ([]RevisionResponse, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}
	revs, err := s.revisions.FindByBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToRevisionResponses(revs), nil
}

func (s *BudgetService) report(ctx context.Context, b *budget.BudgetEvent) (*BudgetResponse, error) {
	latest, err := s.revisions.FindLatestByBudget(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.revisions.CountByBudget(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	resp := ToBudgetResponse(budget.BuildReport(b, latest, count))
	return &resp, nil
}

func (s *BudgetService) lockBudget(ctx context.Context, repo budget.BudgetEventRepository, id int64) (*budget.BudgetEvent, error) {
	b, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Budget event %d not found", id))
		}
		return nil, err
	}
	return b, nil
}

func (s *BudgetService) ensureExists(ctx context.Context, id int64) error {
	if _, err := s.budgets.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError(fmt.Sprintf("Budget event %d not found", id))
		}
		return err
	}
	return nil
}

// publish hands events to the bus after commit. Delivery failures are logged
// and never undo the committed change.
func (s *BudgetService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish budget events", zap.Error(err))
	}
}
