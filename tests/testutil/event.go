package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erp/reconcile/internal/domain/shared"
)

// MockEventHandler records every event delivered to it. Integration
// tests subscribe one to the bus in place of the real stock relay and
// assert on what the reconciliation service published.
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewMockEventHandler creates a handler subscribed to the given event
// types. Without types it acts as a catch-all subscriber.
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event and returns the configured error, if any.
func (h *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of every recorded event in delivery order.
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]shared.DomainEvent, len(h.handled))
	copy(result, h.handled)
	return result
}

// HandledTypes returns the event types of the recorded events in
// delivery order.
func (h *MockEventHandler) HandledTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]string, 0, len(h.handled))
	for _, e := range h.handled {
		types = append(types, e.EventType())
	}
	return types
}

// HandledCount returns the number of recorded events.
func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes subsequent Handle calls fail with err. The bus treats
// handler errors as best-effort, so tests use this to prove a broken
// subscriber does not block the publishing request.
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset clears the recorded events and any configured error.
func (h *MockEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = make([]shared.DomainEvent, 0)
	h.err = nil
}

// WaitFor blocks until the handler has recorded at least count events
// or the timeout passes. It reports whether the count was reached.
// Synchronous bus dispatch never needs this; it exists for tests that
// publish from another goroutine.
func (h *MockEventHandler) WaitFor(count int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.HandledCount() >= count {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return h.HandledCount() >= count
}

// LedgerTestEvent is a minimal order-scoped event for exercising bus
// and handler plumbing without building a full order aggregate.
type LedgerTestEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
}

// NewLedgerEvent creates a test event of the given type against a
// fresh order ID.
func NewLedgerEvent(eventType string) *LedgerTestEvent {
	return NewLedgerEventForOrder(eventType, uuid.New())
}

// NewLedgerEventForOrder creates a test event of the given type
// attached to a specific order aggregate.
func NewLedgerEventForOrder(eventType string, orderID uuid.UUID) *LedgerTestEvent {
	return &LedgerTestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "reconcile.Order", orderID),
		OrderNumber:     "SO-20260201-001",
	}
}
