package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelOperation     = "operation"
	ProfilingLabelPaymentMethod = "payment_method"
	ProfilingLabelRoute         = "route"
	ProfilingLabelMethod        = "method"
)

// Operation label values for the sale saga and the ledger.
const (
	OperationFinalizeSale   = "finalize_sale"
	OperationCompensateSale = "compensate_sale"
	OperationCancelSale     = "cancel_sale"
	OperationSettleEntry    = "settle_entry"
)

// MaxLabelValueLength bounds label values.
const MaxLabelValueLength = 128

// highCardinalityLabels are never attached to profiles: one series per
// sale or customer would blow up pyroscope's label index.
var highCardinalityLabels = map[string]bool{
	"sale_id":         true,
	"customer_id":     true,
	"entry_id":        true,
	"idempotency_key": true,
	"request_id":      true,
	"trace_id":        true,
	"span_id":         true,
}

// WithProfilingLabels runs fn with pprof labels attached to the goroutine,
// so CPU samples taken inside fn can be filtered by them. Labels nest: fn
// inherits whatever labels ctx already carries.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels labels a saga or ledger step. paymentMethod must be one of the
// fixed payment methods, never free text.
func OperationLabels(operation, paymentMethod string) map[string]string {
	labels := map[string]string{ProfilingLabelOperation: operation}
	if paymentMethod != "" {
		labels[ProfilingLabelPaymentMethod] = paymentMethod
	}
	return labels
}

// sanitizeLabels returns sorted key/value pairs, dropping empty and
// high-cardinality labels and truncating long values.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, k := range keys {
		value := labels[k]
		key := sanitizeLabelKey(k)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases the key and keeps [a-z0-9_], mapping spaces and dashes to underscores.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		switch c := key[i]; {
		case c == ' ' || c == '-':
			b.WriteByte('_')
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_':
			b.WriteByte(c)
		}
	}
	return b.String()
}
