package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Operation":       "record_payment",
		"document-type":   "invoice",
		"payment_id":      "42",
		"empty":           "",
		"route":           strings.Repeat("x", 100),
		"!!!":             "dropped",
		"idempotency_key": "abc",
	})

	assert.Equal(t, []string{
		"document_type", "invoice",
		"operation", "record_payment",
		"route", strings.Repeat("x", MaxLabelValueLength),
	}, pairs)
}

func TestSanitizeLabels_Empty(t *testing.T) {
	assert.Nil(t, sanitizeLabels(nil))
}

func TestOperationLabels(t *testing.T) {
	labels := OperationLabels("record_payment", map[string]string{
		ProfilingLabelDocumentType: "invoice",
		ProfilingLabelOperation:    "overridden",
	})
	assert.Equal(t, "record_payment", labels[ProfilingLabelOperation])
	assert.Equal(t, "invoice", labels[ProfilingLabelDocumentType])
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("labels are visible inside fn", func(t *testing.T) {
		var got string
		WithProfilingLabels(context.Background(), OperationLabels("revise_budget", nil), func(ctx context.Context) {
			got, _ = pprof.Label(ctx, ProfilingLabelOperation)
		})
		assert.Equal(t, "revise_budget", got)
	})

	t.Run("no labels still runs fn", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
		assert.True(t, called)
	})
}
