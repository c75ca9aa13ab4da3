package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/domain/shared"
	"go.uber.org/zap"
)

// StreamAppender appends stock movement requests to a durable stream
// consumed by the inventory collaborator.
type StreamAppender interface {
	Append(ctx context.Context, stream string, values map[string]interface{}) error
}

// DefaultStockStream is the stream the inventory collaborator reads from
const DefaultStockStream = "reconcile:stock-requests"

// StockRelayHandler forwards restock, scrap and issue requests raised by
// the reconciliation aggregate to the inventory collaborator. Stock never
// moves inside this service; the relay is the only outbound path.
type StockRelayHandler struct {
	appender StreamAppender
	stream   string
	logger   *zap.Logger
}

// NewStockRelayHandler creates a new handler for stock movement events
func NewStockRelayHandler(appender StreamAppender, stream string, logger *zap.Logger) *StockRelayHandler {
	if stream == "" {
		stream = DefaultStockStream
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockRelayHandler{
		appender: appender,
		stream:   stream,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StockRelayHandler) EventTypes() []string {
	return []string{
		reconcile.EventTypeRestockRequested,
		reconcile.EventTypeScrapRequested,
		reconcile.EventTypeStockIssueRequested,
	}
}

// Handle serializes the stock movement request and appends it to the stream
func (h *StockRelayHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var values map[string]interface{}

	switch e := event.(type) {
	case *reconcile.RestockRequestedEvent:
		values = map[string]interface{}{
			"action":       "restock",
			"order_number": e.OrderNumber,
			"location_id":  e.LocationID.String(),
			"product_id":   e.ProductID.String(),
			"quantity":     e.Quantity.String(),
		}
	case *reconcile.ScrapRequestedEvent:
		values = map[string]interface{}{
			"action":       "scrap",
			"order_number": e.OrderNumber,
			"location_id":  e.LocationID.String(),
			"product_id":   e.ProductID.String(),
			"quantity":     e.Quantity.String(),
		}
	case *reconcile.StockIssueRequestedEvent:
		values = map[string]interface{}{
			"action":       "issue",
			"order_number": e.OrderNumber,
			"location_id":  e.LocationID.String(),
			"line_id":      e.LineID.String(),
			"product_id":   e.ProductID.String(),
			"quantity":     e.Quantity.String(),
		}
		if len(e.Serials) > 0 {
			values["serials"] = strings.Join(e.Serials, ",")
		}
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	values["event_id"] = event.EventID().String()
	values["occurred_at"] = event.OccurredAt().UTC().Format("2006-01-02T15:04:05.000Z07:00")

	if err := h.appender.Append(ctx, h.stream, values); err != nil {
		h.logger.Error("failed to relay stock movement request",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("append stock request to stream: %w", err)
	}

	h.logger.Info("stock movement request relayed",
		zap.String("event_type", event.EventType()),
		zap.String("stream", h.stream),
	)
	return nil
}

// Ensure StockRelayHandler implements EventHandler
var _ shared.EventHandler = (*StockRelayHandler)(nil)
