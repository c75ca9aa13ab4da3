package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("reconcile.order.restock_requested", "reconcile.order.scrap_requested")

	assert.Equal(t, []string{"reconcile.order.restock_requested", "reconcile.order.scrap_requested"}, handler.EventTypes())
	assert.Equal(t, 0, handler.HandledCount())
}

func TestMockEventHandler_Handle(t *testing.T) {
	handler := NewMockEventHandler("reconcile.order.restock_requested")
	event := NewLedgerEvent("reconcile.order.restock_requested")

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event, handler.Handled()[0])
}

func TestMockEventHandler_HandledTypes(t *testing.T) {
	handler := NewMockEventHandler()

	_ = handler.Handle(context.Background(), NewLedgerEvent("reconcile.order.scrap_requested"))
	_ = handler.Handle(context.Background(), NewLedgerEvent("reconcile.order.stock_issue_requested"))

	assert.Equal(t, []string{
		"reconcile.order.scrap_requested",
		"reconcile.order.stock_issue_requested",
	}, handler.HandledTypes())
}

func TestMockEventHandler_SetError(t *testing.T) {
	handler := NewMockEventHandler("reconcile.order.restock_requested")
	expectedErr := assert.AnError

	handler.SetError(expectedErr)

	err := handler.Handle(context.Background(), NewLedgerEvent("reconcile.order.restock_requested"))
	assert.Equal(t, expectedErr, err)
}

func TestMockEventHandler_Reset(t *testing.T) {
	handler := NewMockEventHandler("reconcile.order.restock_requested")
	handler.SetError(assert.AnError)

	_ = handler.Handle(context.Background(), NewLedgerEvent("reconcile.order.restock_requested"))
	assert.Equal(t, 1, handler.HandledCount())

	handler.Reset()

	assert.Equal(t, 0, handler.HandledCount())
	assert.NoError(t, handler.Handle(context.Background(), NewLedgerEvent("reconcile.order.restock_requested")))
}

func TestNewLedgerEvent(t *testing.T) {
	event := NewLedgerEvent("reconcile.order.restock_requested")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "reconcile.order.restock_requested", event.EventType())
	assert.False(t, event.OccurredAt().IsZero())
	assert.Equal(t, "SO-20260201-001", event.OrderNumber)
}

func TestNewLedgerEventForOrder(t *testing.T) {
	orderID := uuid.New()
	event := NewLedgerEventForOrder("reconcile.order.locked", orderID)

	assert.Equal(t, orderID, event.AggregateID())
	assert.Equal(t, "reconcile.order.locked", event.EventType())
}

func TestMockEventHandler_WaitFor(t *testing.T) {
	t.Run("reached", func(t *testing.T) {
		handler := NewMockEventHandler()

		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = handler.Handle(context.Background(), NewLedgerEvent("reconcile.order.restock_requested"))
			_ = handler.Handle(context.Background(), NewLedgerEvent("reconcile.order.scrap_requested"))
		}()

		assert.True(t, handler.WaitFor(2, 200*time.Millisecond))
	})

	t.Run("timeout", func(t *testing.T) {
		handler := NewMockEventHandler()

		assert.False(t, handler.WaitFor(1, 50*time.Millisecond))
	})
}
