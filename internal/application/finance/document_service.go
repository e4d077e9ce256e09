package finance

import (
	"context"
	"errors"
	"fmt"

	appbudget "github.com/bizledger/backend/internal/application/budget"
	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/numbering"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DocumentService handles the lifecycle of sale orders, purchase bills and
// invoices. All three variants share one code path.
type DocumentService struct {
	scope          TransactionScope
	documents      finance.PayableDocumentRepository
	contacts       partner.ContactRepository
	budgets        budget.BudgetEventRepository
	eventPublisher shared.EventPublisher
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	scope TransactionScope,
	documents finance.PayableDocumentRepository,
	contacts partner.ContactRepository,
	budgets budget.BudgetEventRepository,
) *DocumentService {
	return &DocumentService{
		scope:     scope,
		documents: documents,
		contacts:  contacts,
		budgets:   budgets,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft document and assigns it the next number of its
// family inside the same transaction as the insert.
func (s *DocumentService) Create(ctx context.Context, actor shared.Actor, docType finance.DocumentType, req CreateDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrDocumentType, string(docType))

	d, err := finance.NewPayableDocument(docType, req.CounterpartyID, req.TotalAmount, req.BudgetEventID, req.Notes, actor.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.checkReferences(ctx, d); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		family := docType.Family()
		seq, err := repos.Sequences().Next(ctx, family, "")
		if err != nil {
			return err
		}
		number, err := numbering.FormatDocumentNumber(family, seq, "")
		if err != nil {
			return err
		}
		if err := d.AssignNumber(number); err != nil {
			return err
		}
		return repos.DocumentRepo().Create(ctx, d)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.AttrDocumentID, d.ID, telemetry.AttrDocumentNumber, d.DocumentNumber)
	telemetry.SetOK(span)
	logger.L(ctx).Info("document created",
		zap.Int64("document_id", d.ID),
		zap.String("document", d.Label()),
		zap.String("total_amount", d.TotalAmount.String()),
	)
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// Get returns a document
func (s *DocumentService) Get(ctx context.Context, docType finance.DocumentType, id int64) (*DocumentResponse, error) {
	d, err := findDocument(ctx, s.documents, docType, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// Post moves a draft document to posted. Payments received while it was a
// draft are credited to the linked budget in the same transaction, so the
// budget's achieved amount always equals what posted documents have been paid.
func (s *DocumentService) Post(ctx context.Context, actor shared.Actor, docType finance.DocumentType, id int64) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "post")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.AttrDocumentType, string(docType),
		telemetry.AttrDocumentID, id,
		telemetry.AttrActorRole, string(actor.Role),
	)

	var doc *finance.PayableDocument
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil
		d, err := findDocumentForUpdate(ctx, repos.DocumentRepo(), docType, id)
		if err != nil {
			return err
		}
		if err := d.Post(); err != nil {
			return err
		}
		if err := repos.DocumentRepo().SaveWithLock(ctx, d); err != nil {
			return err
		}
		if d.CountsTowardBudget() && d.TotalPaid.IsPositive() {
			b, err := appbudget.ApplyAchievement(ctx, repos.BudgetRepo(), *d.BudgetEventID, d.TotalPaid,
				d.Label()+" posted")
			if err != nil {
				return err
			}
			events = append(events, b.GetDomainEvents()...)
		}
		events = append(events, d.GetDomainEvents()...)
		doc = d
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	doc.ClearDomainEvents()
	publishEvents(ctx, s.eventPublisher, events)
	telemetry.SetOK(span)
	logger.L(ctx).Info("document posted",
		zap.Int64("document_id", doc.ID),
		zap.String("document", doc.Label()),
		zap.String("actor_id", actor.ID),
	)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Cancel moves a document to cancelled. A document with any payment or
// adjustment against it cannot be cancelled.
func (s *DocumentService) Cancel(ctx context.Context, actor shared.Actor, docType finance.DocumentType, id int64) (*DocumentResponse, error) {
	var doc *finance.PayableDocument
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		d, err := findDocumentForUpdate(ctx, repos.DocumentRepo(), docType, id)
		if err != nil {
			return err
		}
		count, err := repos.PaymentRepo().CountByDocument(ctx, docType, id)
		if err != nil {
			return err
		}
		if err := d.Cancel(count); err != nil {
			return err
		}
		if err := repos.DocumentRepo().SaveWithLock(ctx, d); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, doc.PullDomainEvents())
	logger.L(ctx).Info("document cancelled",
		zap.Int64("document_id", doc.ID),
		zap.String("document", doc.Label()),
		zap.String("actor_id", actor.ID),
	)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// checkReferences verifies the counterparty and the optional budget exist
func (s *DocumentService) checkReferences(ctx context.Context, d *finance.PayableDocument) error {
	if _, err := s.contacts.FindByID(ctx, d.CounterpartyID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError(fmt.Sprintf("Counterparty %d does not exist", d.CounterpartyID))
		}
		return err
	}
	if d.BudgetEventID != nil {
		if _, err := s.budgets.FindByID(ctx, *d.BudgetEventID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError(fmt.Sprintf("Budget event %d does not exist", *d.BudgetEventID))
			}
			return err
		}
	}
	return nil
}
