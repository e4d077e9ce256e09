package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", agg)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestReconciliationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewReconciliationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPayment(ctx, "invoice", "upi", "payment", 1200.50)
	m.RecordPayment(ctx, "invoice", "cash", "payment", 100)
	m.RecordRejection(ctx, "invoice", OutcomeOverpayment)
	m.RecordReplay(ctx, "invoice")
	m.RecordRevision(ctx, "audit")
	m.RecordEventDelivery(ctx, "PaymentRecorded", DeliveryHandled)
	m.RecordEventDelivery(ctx, "PaymentRecorded", DeliveryDuplicate)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["bizledger_event_deliveries_total"]))
	assert.Equal(t, int64(2), sumOf(t, data["bizledger_payments_recorded_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["bizledger_payment_rejections_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["bizledger_payment_idempotent_replays_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["bizledger_budget_revisions_total"]))

	hist, ok := data["bizledger_payment_amount"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	var total float64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		total += dp.Sum
	}
	assert.Equal(t, uint64(2), count)
	assert.InDelta(t, 1300.50, total, 0.001)
}

func TestReconciliationMetrics_NilSafe(t *testing.T) {
	var m *ReconciliationMetrics
	assert.NotPanics(t, func() {
		m.RecordPayment(context.Background(), "invoice", "cash", "payment", 1)
		m.RecordRejection(context.Background(), "invoice", OutcomeConflict)
		m.RecordReplay(context.Background(), "invoice")
		m.RecordRevision(context.Background(), "audit")
		m.RecordBudgetSnapshot(context.Background(), "income", "safe", 3)
		m.RecordEventDelivery(context.Background(), "DocumentPosted", DeliveryFailed)
	})

	_, err := NewReconciliationMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestReconciliationMetrics_BudgetSnapshotGauge(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewReconciliationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordBudgetSnapshot(ctx, "income", "safe", 4)
	m.RecordBudgetSnapshot(ctx, "income", "safe", 2)
	m.RecordBudgetSnapshot(ctx, "expense", "critical", 1)

	gauge, ok := collect(t, reader)["bizledger_budgets"].(metricdata.Gauge[int64])
	require.True(t, ok)
	values := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		typ, _ := dp.Attributes.Value(MetricAttrBudgetType)
		status, _ := dp.Attributes.Value(MetricAttrStatus)
		values[typ.AsString()+"/"+status.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"income/safe": 2, "expense/critical": 1}, values)
}
