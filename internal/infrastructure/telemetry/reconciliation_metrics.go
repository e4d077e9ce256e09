package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// Metric attribute keys
const (
	MetricAttrDocumentType = attribute.Key("document_type")
	MetricAttrMode         = attribute.Key("mode")
	MetricAttrKind         = attribute.Key("kind")
	MetricAttrOutcome      = attribute.Key("outcome")
	MetricAttrPropagation  = attribute.Key("propagation")
	MetricAttrBudgetType   = attribute.Key("budget_type")
	MetricAttrStatus       = attribute.Key("status")
	MetricAttrEventType    = attribute.Key("event_type")
)

// Outcomes recorded by RecordRejection
const (
	OutcomeOverpayment = "overpayment"
	OutcomeConflict    = "conflict"
	OutcomeValidation  = "validation"
)

// Outcomes recorded by RecordEventDelivery
const (
	DeliveryHandled   = "handled"
	DeliveryDuplicate = "duplicate"
	DeliveryFailed    = "failed"
)

// ReconciliationMetrics counts payments and their rejections. A nil
// *ReconciliationMetrics is valid and records nothing.
type ReconciliationMetrics struct {
	paymentsTotal   metric.Int64Counter
	paymentAmount   metric.Float64Histogram
	rejectionsTotal metric.Int64Counter
	replaysTotal    metric.Int64Counter
	revisionsTotal  metric.Int64Counter
	budgetsGauge    metric.Int64Gauge
	deliveriesTotal metric.Int64Counter
}

// NewReconciliationMetrics registers the instruments on meter.
func NewReconciliationMetrics(meter metric.Meter) (*ReconciliationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &ReconciliationMetrics{}
	var err error

	if m.paymentsTotal, err = meter.Int64Counter(
		"bizledger_payments_recorded_total",
		metric.WithDescription("Payments and adjustments recorded against documents"),
		metric.WithUnit("{payments}"),
	); err != nil {
		return nil, err
	}
	if m.paymentAmount, err = meter.Float64Histogram(
		"bizledger_payment_amount",
		metric.WithDescription("Recorded payment amounts"),
		metric.WithUnit("{currency}"),
	); err != nil {
		return nil, err
	}
	if m.rejectionsTotal, err = meter.Int64Counter(
		"bizledger_payment_rejections_total",
		metric.WithDescription("Payments rejected before commit, by outcome"),
		metric.WithUnit("{payments}"),
	); err != nil {
		return nil, err
	}
	if m.replaysTotal, err = meter.Int64Counter(
		"bizledger_payment_idempotent_replays_total",
		metric.WithDescription("Payment requests answered from an existing idempotency key"),
		metric.WithUnit("{requests}"),
	); err != nil {
		return nil, err
	}
	if m.revisionsTotal, err = meter.Int64Counter(
		"bizledger_budget_revisions_total",
		metric.WithDescription("Budget revisions created"),
		metric.WithUnit("{revisions}"),
	); err != nil {
		return nil, err
	}
	if m.budgetsGauge, err = meter.Int64Gauge(
		"bizledger_budgets",
		metric.WithDescription("Budgets by type and achievement status at the last snapshot"),
		metric.WithUnit("{budgets}"),
	); err != nil {
		return nil, err
	}
	if m.deliveriesTotal, err = meter.Int64Counter(
		"bizledger_event_deliveries_total",
		metric.WithDescription("Ledger event deliveries to downstream handlers, by outcome"),
		metric.WithUnit("{events}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordPayment counts a committed payment and observes its amount
func (m *ReconciliationMetrics) RecordPayment(ctx context.Context, documentType, mode, kind string, amount float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		MetricAttrDocumentType.String(documentType),
		MetricAttrMode.String(mode),
		MetricAttrKind.String(kind),
	)
	m.paymentsTotal.Add(ctx, 1, attrs)
	m.paymentAmount.Record(ctx, amount, attrs)
}

// RecordRejection counts a payment that was refused
func (m *ReconciliationMetrics) RecordRejection(ctx context.Context, documentType, outcome string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.Add(ctx, 1, metric.WithAttributes(
		MetricAttrDocumentType.String(documentType),
		MetricAttrOutcome.String(outcome),
	))
}

// RecordReplay counts a request resolved by its idempotency key
func (m *ReconciliationMetrics) RecordReplay(ctx context.Context, documentType string) {
	if m == nil {
		return
	}
	m.replaysTotal.Add(ctx, 1, metric.WithAttributes(MetricAttrDocumentType.String(documentType)))
}

// RecordRevision counts a budget revision
func (m *ReconciliationMetrics) RecordRevision(ctx context.Context, propagation string) {
	if m == nil {
		return
	}
	m.revisionsTotal.Add(ctx, 1, metric.WithAttributes(MetricAttrPropagation.String(propagation)))
}

// RecordBudgetSnapshot sets the number of budgets of a type in a status
func (m *ReconciliationMetrics) RecordBudgetSnapshot(ctx context.Context, budgetType, status string, count int64) {
	if m == nil {
		return
	}
	m.budgetsGauge.Record(ctx, count, metric.WithAttributes(
		MetricAttrBudgetType.String(budgetType),
		MetricAttrStatus.String(status),
	))
}

// RecordEventDelivery counts one event delivery attempt
func (m *ReconciliationMetrics) RecordEventDelivery(ctx context.Context, eventType, outcome string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.Add(ctx, 1, metric.WithAttributes(
		MetricAttrEventType.String(eventType),
		MetricAttrOutcome.String(outcome),
	))
}
