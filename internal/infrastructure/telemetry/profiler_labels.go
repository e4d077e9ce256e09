package telemetry

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Keep them low-cardinality.
const (
	ProfilingLabelOperation    = "operation"
	ProfilingLabelDocumentType = "document_type"
	ProfilingLabelRoute        = "route"
	ProfilingLabelMethod       = "method"
)

// MaxLabelValueLength caps label values
const MaxLabelValueLength = 64

// highCardinalityLabels never reach Pyroscope
var highCardinalityLabels = map[string]bool{
	"payment_id":      true,
	"document_id":     true,
	"budget_id":       true,
	"idempotency_key": true,
	"request_id":      true,
	"trace_id":        true,
	"user_id":         true,
}

// WithProfilingLabels runs fn with pprof labels attached so its CPU time can
// be filtered in Pyroscope. Empty and high-cardinality labels are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(maps.Clone(labels))
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels builds labels for a named operation
func OperationLabels(operation string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	maps.Copy(labels, extra)
	labels[ProfilingLabelOperation] = operation
	return labels
}

// sanitizeLabels returns sorted key/value pairs in pprof order
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	clean := make(map[string]string, len(labels))
	for key, value := range labels {
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		clean[key] = value
	}
	if len(clean) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(clean)*2)
	for _, key := range slices.Sorted(maps.Keys(clean)) {
		pairs = append(pairs, key, clean[key])
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '.':
			b.WriteByte('_')
		}
	}
	return b.String()
}
