package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReceiptRenderer turns a receipt view into printable output
type ReceiptRenderer interface {
	RenderHTML(view *finance.ReceiptView) ([]byte, error)
	RenderPDF(ctx context.Context, view *finance.ReceiptView) ([]byte, error)
}

// ReceiptArchive stores rendered receipts and hands out temporary links
type ReceiptArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (url string, expiresAt time.Time, err error)
}

// ReceiptService builds and renders payment receipts. It only reads ledger
// state; nothing it does feeds back into payments or documents.
type ReceiptService struct {
	payments  finance.PaymentRepository
	documents finance.PayableDocumentRepository
	contacts  partner.ContactRepository
	renderer  ReceiptRenderer
	archive   ReceiptArchive
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	payments finance.PaymentRepository,
	documents finance.PayableDocumentRepository,
	contacts partner.ContactRepository,
) *ReceiptService {
	return &ReceiptService{
		payments:  payments,
		documents: documents,
		contacts:  contacts,
	}
}

// SetRenderer enables HTML and PDF rendering
func (s *ReceiptService) SetRenderer(renderer ReceiptRenderer) {
	s.renderer = renderer
}

// SetArchive enables archiving rendered receipts
func (s *ReceiptService) SetArchive(archive ReceiptArchive) {
	s.archive = archive
}

// BuildReceiptView assembles the receipt for a payment. The balance shown is
// the balance as it stood right after the payment, however much later the
// receipt is printed.
func (s *ReceiptService) BuildReceiptView(ctx context.Context, paymentID int64) (*finance.ReceiptView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "build_view")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrPaymentID, paymentID)

	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = shared.NewNotFoundError(fmt.Sprintf("Payment %d not found", paymentID))
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	d, err := s.documents.FindByPaymentTarget(ctx, p)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	counterparty, err := s.contacts.FindByID(ctx, d.CounterpartyID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			return nil, err
		}
		logger.L(ctx).Warn("receipt counterparty missing", zap.Int64("counterparty_id", d.CounterpartyID))
	}

	entries, err := s.payments.FindByDocument(ctx, d.DocumentType, d.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	view, err := finance.BuildReceiptView(p, d, counterparty, finance.PaidThrough(entries, p.ID))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrReceiptNumber, view.ReceiptNumber)
	telemetry.SetOK(span)
	return view, nil
}

// RenderHTML renders the receipt for a payment as an HTML page
func (s *ReceiptService) RenderHTML(ctx context.Context, paymentID int64) ([]byte, error) {
	if s.renderer == nil {
		return nil, shared.NewInvalidStateError("Receipt printing is not enabled")
	}
	view, err := s.BuildReceiptView(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderHTML(view)
}

// RenderPDF renders the receipt for a payment as a PDF
func (s *ReceiptService) RenderPDF(ctx context.Context, paymentID int64) ([]byte, *finance.ReceiptView, error) {
	if s.renderer == nil {
		return nil, nil, shared.NewInvalidStateError("Receipt printing is not enabled")
	}
	view, err := s.BuildReceiptView(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}

	var pdf []byte
	var renderErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("render_receipt_pdf", nil), func(c context.Context) {
		pdf, renderErr = s.renderer.RenderPDF(c, view)
	})
	if renderErr != nil {
		return nil, nil, fmt.Errorf("failed to render receipt %s: %w", view.ReceiptNumber, renderErr)
	}
	return pdf, view, nil
}

// Archive renders the receipt PDF, stores it and returns a temporary link
func (s *ReceiptService) Archive(ctx context.Context, paymentID int64) (*ArchivedReceipt, error) {
	if s.archive == nil {
		return nil, shared.NewInvalidStateError("Receipt archiving is not enabled")
	}
	pdf, view, err := s.RenderPDF(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	key := ReceiptObjectKey(view)
	if err := s.archive.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to archive receipt %s: %w", view.ReceiptNumber, err)
	}
	url, expiresAt, err := s.archive.PresignGet(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign receipt link: %w", err)
	}

	logger.L(ctx).Info("receipt archived",
		zap.Int64("payment_id", paymentID),
		zap.String("receipt_number", view.ReceiptNumber),
		zap.String("key", key),
	)
	return &ArchivedReceipt{
		ReceiptNumber: view.ReceiptNumber,
		Key:           key,
		URL:           url,
		ExpiresAt:     expiresAt,
	}, nil
}

// ReceiptObjectKey is the archive key of a receipt, e.g.
// receipts/25/Pay-25-0001.pdf
func ReceiptObjectKey(view *finance.ReceiptView) string {
	name := strings.ReplaceAll(view.ReceiptNumber, "/", "-")
	if name == "" {
		name = fmt.Sprintf("payment-%d", view.PaymentID)
	}
	return fmt.Sprintf("receipts/%s/%s.pdf", view.PaymentDate.Format("06"), name)
}
