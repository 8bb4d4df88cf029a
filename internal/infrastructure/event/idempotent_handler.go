package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats counts what the idempotent wrapper did.
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler runs the wrapped handler at most once per event id within
// the store's TTL. The key is scoped by name so two handlers may both see an event.
type IdempotentHandler struct {
	name    string
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler under name.
func NewIdempotentHandler(
	name string,
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	config shared.IdempotencyConfig,
	logger *zap.Logger,
) *IdempotentHandler {
	return &IdempotentHandler{
		name:    name,
		handler: handler,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// EventTypes delegates to the wrapped handler.
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle marks the event first and skips it when it was already marked. A
// store failure does not drop the event; running twice beats never running.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, ev)
	}

	key := h.Key(ev)
	fresh, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, handling anyway",
			zap.String("handler", h.name),
			zap.String("event_id", ev.EventID().String()),
			zap.Error(err),
		)
	case !fresh:
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("handler", h.name),
			zap.String("event_id", ev.EventID().String()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, ev); err != nil {
		h.failed.Add(1)
		return fmt.Errorf("%s: %w", h.name, err)
	}
	h.processed.Add(1)
	return nil
}

// Key is the idempotency key used for ev.
func (h *IdempotentHandler) Key(ev shared.DomainEvent) string {
	return h.name + ":" + ev.EventID().String()
}

// Stats returns a snapshot of the counters.
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
