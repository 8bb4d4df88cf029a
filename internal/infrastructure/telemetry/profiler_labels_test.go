package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func goroutineLabels(ctx context.Context) map[string]string {
	labels := map[string]string{}
	pprof.ForLabels(ctx, func(key, value string) bool {
		labels[key] = value
		return true
	})
	return labels
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("no labels runs fn with the same context", func(t *testing.T) {
		ctx := context.Background()
		called := false
		WithProfilingLabels(ctx, nil, func(c context.Context) {
			called = true
			assert.Equal(t, ctx, c)
		})
		assert.True(t, called)
	})

	t.Run("sale labels reach the goroutine", func(t *testing.T) {
		WithProfilingLabels(context.Background(), OperationLabels(OperationFinalizeSale, "credit"), func(c context.Context) {
			assert.Equal(t, map[string]string{
				ProfilingLabelOperation:     OperationFinalizeSale,
				ProfilingLabelPaymentMethod: "credit",
			}, goroutineLabels(c))
		})
	})

	t.Run("nested scopes merge", func(t *testing.T) {
		outer := map[string]string{ProfilingLabelRoute: "/api/v1/sales", ProfilingLabelMethod: "POST"}
		WithProfilingLabels(context.Background(), outer, func(c context.Context) {
			WithProfilingLabels(c, OperationLabels(OperationCompensateSale, ""), func(inner context.Context) {
				labels := goroutineLabels(inner)
				assert.Equal(t, "/api/v1/sales", labels[ProfilingLabelRoute])
				assert.Equal(t, OperationCompensateSale, labels[ProfilingLabelOperation])
				assert.NotContains(t, labels, ProfilingLabelPaymentMethod)
			})
		})
	})

	t.Run("only high cardinality labels is a plain call", func(t *testing.T) {
		WithProfilingLabels(context.Background(), map[string]string{"sale_id": "abc"}, func(c context.Context) {
			assert.Empty(t, goroutineLabels(c))
		})
	})
}

func TestSanitizeLabels(t *testing.T) {
	long := strings.Repeat("x", MaxLabelValueLength+10)
	pairs := sanitizeLabels(map[string]string{
		"Payment-Method": "pix",
		"customer_id":    "c-1",
		"Sale ID":        "s-1",
		"operation":      long,
		"empty":          "",
		"!!":             "dropped",
	})

	// ordered by the raw key, so "Payment-Method" sorts before "operation"
	assert.Equal(t, []string{
		"payment_method", "pix",
		"operation", long[:MaxLabelValueLength],
	}, pairs)
}

func TestSanitizeLabelKey(t *testing.T) {
	assert.Equal(t, "payment_method", sanitizeLabelKey("Payment-Method"))
	assert.Equal(t, "cash_session", sanitizeLabelKey("cash session"))
	assert.Equal(t, "op2", sanitizeLabelKey("op#2"))
	assert.Empty(t, sanitizeLabelKey("%%"))
}
