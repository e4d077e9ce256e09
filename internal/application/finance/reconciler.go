package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appbudget "github.com/bizledger/backend/internal/application/budget"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/numbering"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const idempotencyKeyPrefix = "payment:"

// ReconcilerConfig holds the payment recording settings
type ReconcilerConfig struct {
	// OverpaymentTolerance is how far the paid sum may exceed a document total
	OverpaymentTolerance valueobject.Money
	Idempotency          shared.IdempotencyConfig
}

// DefaultReconcilerConfig returns a strict configuration: no tolerance and
// the in-flight idempotency guard enabled.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		OverpaymentTolerance: valueobject.Zero(),
		Idempotency:          shared.DefaultIdempotencyConfig(),
	}
}

// Reconciler applies payments against payable documents. Each payment runs
// check-then-write under a row lock on the document plus its optimistic
// version, so racing payments can never jointly overpay: the loser sees the
// winner's payment and fails with an overpayment error, or with a conflict
// error if the version moved underneath it.
type Reconciler struct {
	scope          TransactionScope
	documents      finance.PayableDocumentRepository
	payments       finance.PaymentRepository
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ReconciliationMetrics
	cfg            ReconcilerConfig
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	scope TransactionScope,
	documents finance.PayableDocumentRepository,
	payments finance.PaymentRepository,
	cfg ReconcilerConfig,
) *Reconciler {
	return &Reconciler{
		scope:     scope,
		documents: documents,
		payments:  payments,
		cfg:       cfg,
	}
}

// SetIdempotencyStore sets the in-flight guard for idempotency keys (optional)
func (r *Reconciler) SetIdempotencyStore(store shared.IdempotencyStore) {
	r.idempotency = store
}

// SetEventPublisher sets the event publisher for publishing domain events
func (r *Reconciler) SetEventPublisher(publisher shared.EventPublisher) {
	r.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder (optional)
func (r *Reconciler) SetMetrics(metrics *telemetry.ReconciliationMetrics) {
	r.metrics = metrics
}

// GetBalance returns the payment position of a document. Total paid is
// summed from the payment log, adjustments included.
func (r *Reconciler) GetBalance(ctx context.Context, docType finance.DocumentType, docID int64) (*BalanceResponse, error) {
	d, err := findDocument(ctx, r.documents, docType, docID)
	if err != nil {
		return nil, err
	}
	paid, err := r.payments.SumByDocument(ctx, docType, docID)
	if err != nil {
		return nil, err
	}
	resp := ToBalanceResponse(d, paid)
	return &resp, nil
}

// FindByIdempotencyKey returns the payment recorded under key, or nil
func (r *Reconciler) FindByIdempotencyKey(ctx context.Context, key string) (*PaymentResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, shared.NewValidationError("Idempotency key cannot be empty")
	}
	p, err := r.payments.FindByIdempotencyKey(ctx, key)
	if err != nil || p == nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// ListPayments returns every entry against a document, oldest first
func (r *Reconciler) ListPayments(ctx context.Context, docType finance.DocumentType, docID int64) ([]PaymentResponse, error) {
	if _, err := findDocument(ctx, r.documents, docType, docID); err != nil {
		return nil, err
	}
	entries, err := r.payments.FindByDocument(ctx, docType, docID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, len(entries))
	for i := range entries {
		out[i] = ToPaymentResponse(&entries[i])
	}
	return out, nil
}

// RecordPayment applies a payment to a document:
//  1. the amount must be positive
//  2. the paid sum plus amount may not exceed the total by more than the tolerance
//  3. the payment row is appended with a freshly allocated receipt number
//  4. the document's paid total and payment status are recomputed
//  5. a posted document linked to a budget moves the budget's achieved amount
//
// All of it commits in one transaction. A repeated idempotency key returns
// the original payment without writing anything.
func (r *Reconciler) RecordPayment(ctx context.Context, actor shared.Actor, in finance.PaymentInput) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciler", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.AttrDocumentType, string(in.DocumentType),
		telemetry.AttrDocumentID, in.DocumentID,
		telemetry.AttrPaymentAmount, in.Amount.String(),
		telemetry.AttrPaymentMode, string(in.Mode),
		telemetry.AttrActorRole, string(actor.Role),
	)

	var result *PaymentResult
	var opErr error
	labels := telemetry.OperationLabels("record_payment", map[string]string{
		telemetry.ProfilingLabelDocumentType: string(in.DocumentType),
	})
	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		result, opErr = r.recordPayment(c, actor, in)
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		r.recordRejection(ctx, in.DocumentType, opErr)
		return nil, opErr
	}

	telemetry.SetAttributes(span,
		telemetry.AttrPaymentID, result.Payment.ID,
		telemetry.AttrReceiptNumber, result.Payment.ReceiptNumber,
		"payment.replayed", result.Replayed,
	)
	telemetry.SetOK(span)
	return result, nil
}

func (r *Reconciler) recordPayment(ctx context.Context, actor shared.Actor, in finance.PaymentInput) (*PaymentResult, error) {
	payment, err := finance.NewPayment(in, actor.ID)
	if err != nil {
		return nil, err
	}

	if payment.IdempotencyKey != nil {
		key := *payment.IdempotencyKey
		existing, err := r.payments.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return r.replay(ctx, existing, in)
		}
		release, err := r.claim(ctx, key)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var doc *finance.PayableDocument
	var events []shared.DomainEvent
	err = r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil
		d, err := findDocumentForUpdate(ctx, repos.DocumentRepo(), in.DocumentType, in.DocumentID)
		if err != nil {
			return err
		}

		paid, err := repos.PaymentRepo().SumByDocument(ctx, d.DocumentType, d.ID)
		if err != nil {
			return err
		}
		if err := d.CheckPayment(payment.Amount, paid, r.cfg.OverpaymentTolerance); err != nil {
			return err
		}

		seq, err := repos.Sequences().Next(ctx, numbering.FamilyReceipt, payment.ReceiptYear)
		if err != nil {
			return err
		}
		payment.AssignReceiptSequence(seq)
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return err
		}

		d.ApplyPaidTotal(paid.Add(payment.Amount))
		if err := repos.DocumentRepo().SaveWithLock(ctx, d); err != nil {
			return err
		}

		if d.CountsTowardBudget() {
			b, err := appbudget.ApplyAchievement(ctx, repos.BudgetRepo(), *d.BudgetEventID, payment.Amount,
				fmt.Sprintf("%s receipt %s", d.Label(), payment.ReceiptNumber()))
			if err != nil {
				return err
			}
			events = append(events, b.GetDomainEvents()...)
		}
		events = append(events, finance.NewPaymentRecordedEvent(d, payment))
		doc = d
		return nil
	})
	if err != nil {
		// a concurrent request with the same key won the unique index
		if payment.IdempotencyKey != nil && shared.IsConflict(err) {
			if existing, ferr := r.payments.FindByIdempotencyKey(ctx, *payment.IdempotencyKey); ferr == nil && existing != nil {
				return r.replay(ctx, existing, in)
			}
		}
		return nil, err
	}

	r.publish(ctx, events)
	r.metrics.RecordPayment(ctx, string(doc.DocumentType), string(payment.Mode), string(payment.Kind),
		payment.Amount.Amount().InexactFloat64())
	logger.L(ctx).Info("payment recorded",
		zap.Int64("payment_id", payment.ID),
		zap.String("receipt_number", payment.ReceiptNumber()),
		zap.String("document", doc.Label()),
		zap.String("amount", payment.Amount.String()),
		zap.String("total_paid", doc.TotalPaid.String()),
		zap.String("payment_status", string(doc.PaymentStatus)),
	)

	return &PaymentResult{
		Payment: ToPaymentResponse(payment),
		Balance: ToBalanceResponse(doc, doc.TotalPaid),
	}, nil
}

// RecordAdjustment reverses part or all of a payment by appending a negative
// entry. The original payment row is never touched. The document's status is
// recomputed and, for a posted document linked to a budget, the budget's
// achieved amount is reversed by the same amount. Admin only.
func (r *Reconciler) RecordAdjustment(ctx context.Context, actor shared.Actor, paymentID int64, req RecordAdjustmentRequest) (*PaymentResult, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciler", "record_adjustment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.AttrPaymentID, paymentID,
		telemetry.AttrPaymentAmount, req.Amount.String(),
	)

	var adjustment *finance.Payment
	var doc *finance.PayableDocument
	var events []shared.DomainEvent
	err := r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil
		original, err := repos.PaymentRepo().FindByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewNotFoundError(fmt.Sprintf("Payment %d not found", paymentID))
			}
			return err
		}
		d, err := findDocumentForUpdate(ctx, repos.DocumentRepo(), original.TargetDocumentType, original.TargetDocumentID)
		if err != nil {
			return err
		}

		reversed, err := repos.PaymentRepo().SumAdjustmentsFor(ctx, original.ID)
		if err != nil {
			return err
		}
		adj, err := finance.NewAdjustment(original, req.Amount, reversed, req.Reason, actor.ID)
		if err != nil {
			return err
		}
		paid, err := repos.PaymentRepo().SumByDocument(ctx, d.DocumentType, d.ID)
		if err != nil {
			return err
		}

		seq, err := repos.Sequences().Next(ctx, numbering.FamilyReceipt, adj.ReceiptYear)
		if err != nil {
			return err
		}
		adj.AssignReceiptSequence(seq)
		if err := repos.PaymentRepo().Create(ctx, adj); err != nil {
			return err
		}

		d.ApplyPaidTotal(paid.Add(adj.Amount))
		if err := repos.DocumentRepo().SaveWithLock(ctx, d); err != nil {
			return err
		}

		if d.CountsTowardBudget() {
			b, err := appbudget.ApplyAchievement(ctx, repos.BudgetRepo(), *d.BudgetEventID, adj.Amount,
				fmt.Sprintf("%s adjustment %s", d.Label(), adj.ReceiptNumber()))
			if err != nil {
				return err
			}
			events = append(events, b.GetDomainEvents()...)
		}
		events = append(events, finance.NewPaymentRecordedEvent(d, adj))
		adjustment, doc = adj, d
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	r.publish(ctx, events)
	r.metrics.RecordPayment(ctx, string(doc.DocumentType), string(adjustment.Mode), string(adjustment.Kind),
		adjustment.Amount.Amount().InexactFloat64())
	logger.L(ctx).Info("payment adjusted",
		zap.Int64("payment_id", paymentID),
		zap.Int64("adjustment_id", adjustment.ID),
		zap.String("amount", adjustment.Amount.String()),
		zap.String("document", doc.Label()),
	)
	telemetry.SetOK(span)

	return &PaymentResult{
		Payment: ToPaymentResponse(adjustment),
		Balance: ToBalanceResponse(doc, doc.TotalPaid),
	}, nil
}

// replay returns the payment already recorded under a key. A key reused for
// a different document is rejected rather than silently answered.
func (r *Reconciler) replay(ctx context.Context, existing *finance.Payment, in finance.PaymentInput) (*PaymentResult, error) {
	if existing.TargetDocumentType != in.DocumentType || existing.TargetDocumentID != in.DocumentID {
		return nil, shared.NewConflictError(fmt.Sprintf(
			"Idempotency key was already used for a payment against another document (payment %d)", existing.ID))
	}
	d, err := r.documents.FindByPaymentTarget(ctx, existing)
	if err != nil {
		return nil, err
	}
	paid, err := r.payments.SumByDocument(ctx, d.DocumentType, d.ID)
	if err != nil {
		return nil, err
	}

	r.metrics.RecordReplay(ctx, string(d.DocumentType))
	logger.L(ctx).Info("idempotent payment replayed",
		zap.Int64("payment_id", existing.ID),
		zap.String("document", d.Label()),
	)
	return &PaymentResult{
		Payment:  ToPaymentResponse(existing),
		Balance:  ToBalanceResponse(d, paid),
		Replayed: true,
	}, nil
}

// claim takes the in-flight guard for key. The returned release func must be
// called once the attempt finishes, successful or not: the durable record of a
// processed key is the payment row itself. A failing store is logged and
// bypassed; the unique index still prevents duplicates.
func (r *Reconciler) claim(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if r.idempotency == nil || !r.cfg.Idempotency.Enabled {
		return noop, nil
	}
	storeKey := idempotencyKeyPrefix + key
	claimed, err := r.idempotency.MarkProcessed(ctx, storeKey, r.cfg.Idempotency.TTL)
	if err != nil {
		logger.L(ctx).Warn("idempotency store unavailable, relying on unique index", zap.Error(err))
		return noop, nil
	}
	if !claimed {
		return nil, shared.NewConflictError("A payment with this idempotency key is already being processed")
	}
	return func() {
		if err := r.idempotency.Release(context.WithoutCancel(ctx), storeKey); err != nil {
			logger.L(ctx).Warn("failed to release idempotency key", zap.Error(err))
		}
	}, nil
}

func (r *Reconciler) recordRejection(ctx context.Context, docType finance.DocumentType, err error) {
	switch shared.CodeOf(err) {
	case shared.CodeOverpayment:
		r.metrics.RecordRejection(ctx, string(docType), telemetry.OutcomeOverpayment)
	case shared.CodeConflict:
		r.metrics.RecordRejection(ctx, string(docType), telemetry.OutcomeConflict)
	case shared.CodeValidation:
		r.metrics.RecordRejection(ctx, string(docType), telemetry.OutcomeValidation)
	}
}

func (r *Reconciler) publish(ctx context.Context, events []shared.DomainEvent) {
	publishEvents(ctx, r.eventPublisher, events)
}

// publishEvents hands events to the bus after commit. Delivery failures are
// logged and never undo the committed change.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish ledger events", zap.Error(err), zap.Int("count", len(events)))
	}
}

func findDocument(ctx context.Context, repo finance.PayableDocumentRepository, docType finance.DocumentType, id int64) (*finance.PayableDocument, error) {
	d, err := repo.FindByID(ctx, docType, id)
	return d, notFoundAs(err, docType, id)
}

func findDocumentForUpdate(ctx context.Context, repo finance.PayableDocumentRepository, docType finance.DocumentType, id int64) (*finance.PayableDocument, error) {
	d, err := repo.FindByIDForUpdate(ctx, docType, id)
	return d, notFoundAs(err, docType, id)
}

func notFoundAs(err error, docType finance.DocumentType, id int64) error {
	if err != nil && errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(fmt.Sprintf("%s %d not found", docType.Label(), id))
	}
	return err
}
