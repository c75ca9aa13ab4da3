package reconcile

import (
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type identifier for events
const AggregateTypeOrder = "reconcile.Order"

// Event types for the reconciliation aggregate
const (
	EventTypeOrderDeliveryRegistered = "reconcile.order.delivery_registered"
	EventTypeItemReturned            = "reconcile.order.item_returned"
	EventTypeItemReplaced            = "reconcile.order.item_replaced"
	EventTypeComplimentaryAdded      = "reconcile.order.complimentary_added"
	EventTypeItemReset               = "reconcile.order.item_reset"
	EventTypeOrderReset              = "reconcile.order.reset"
	EventTypeOrderLocked             = "reconcile.order.locked"
	EventTypeRestockRequested        = "reconcile.stock.restock_requested"
	EventTypeScrapRequested          = "reconcile.stock.scrap_requested"
	EventTypeStockIssueRequested     = "reconcile.stock.issue_requested"
)

// OrderDeliveryRegisteredEvent is emitted when delivery facts are handed
// over and the reconciliation ledger for the order begins.
type OrderDeliveryRegisteredEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	LineCount   int       `json:"line_count"`
}

// NewOrderDeliveryRegisteredEvent creates a new delivery registered event
func NewOrderDeliveryRegisteredEvent(o *Order) *OrderDeliveryRegisteredEvent {
	return &OrderDeliveryRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDeliveryRegistered, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		LineCount:       len(o.Lines),
	}
}

// ItemReturnedEvent is emitted when quantity is returned against a line
type ItemReturnedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	LineID      uuid.UUID       `json:"line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Condition   Condition       `json:"condition"`
	Reason      string          `json:"reason"`
	EntrySeq    int             `json:"entry_seq"`
}

// NewItemReturnedEvent creates a new item returned event
func NewItemReturnedEvent(o *Order, line *OrderLine, entry *AuditEntry) *ItemReturnedEvent {
	return &ItemReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemReturned, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		LineID:          line.ID,
		ProductID:       line.ProductID,
		Quantity:        entry.Quantity,
		Condition:       *entry.Condition,
		Reason:          entry.Reason,
		EntrySeq:        entry.Seq,
	}
}

// ItemReplacedEvent is emitted when quantity is replaced with another product
type ItemReplacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber  string          `json:"order_number"`
	LineID       uuid.UUID       `json:"line_id"`
	NewLineID    uuid.UUID       `json:"new_line_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	NewProductID uuid.UUID       `json:"new_product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	EntrySeq     int             `json:"entry_seq"`
}

// NewItemReplacedEvent creates a new item replaced event
func NewItemReplacedEvent(o *Order, line, newLine *OrderLine, entry *AuditEntry) *ItemReplacedEvent {
	return &ItemReplacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemReplaced, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		LineID:          line.ID,
		NewLineID:       newLine.ID,
		ProductID:       line.ProductID,
		NewProductID:    newLine.ProductID,
		Quantity:        entry.Quantity,
		EntrySeq:        entry.Seq,
	}
}

// ComplimentaryAddedEvent is emitted when a free-of-charge line is added
type ComplimentaryAddedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	LineID      uuid.UUID       `json:"line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewComplimentaryAddedEvent creates a new complimentary added event
func NewComplimentaryAddedEvent(o *Order, line *OrderLine) *ComplimentaryAddedEvent {
	return &ComplimentaryAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeComplimentaryAdded, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		LineID:          line.ID,
		ProductID:       line.ProductID,
		Quantity:        line.OriginalQuantity,
	}
}

// ItemResetEvent is emitted when one root line's reconciliation is reversed
type ItemResetEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	LineID      uuid.UUID `json:"line_id"`
	EntrySeq    int       `json:"entry_seq"`
}

// NewItemResetEvent creates a new item reset event
func NewItemResetEvent(o *Order, line *OrderLine, entry *AuditEntry) *ItemResetEvent {
	return &ItemResetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemReset, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		LineID:          line.ID,
		EntrySeq:        entry.Seq,
	}
}

// OrderResetEvent is emitted when the whole order's reconciliation is reversed
type OrderResetEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	EntrySeq    int    `json:"entry_seq"`
}

// NewOrderResetEvent creates a new order reset event
func NewOrderResetEvent(o *Order, entry *AuditEntry) *OrderResetEvent {
	return &OrderResetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReset, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		EntrySeq:        entry.Seq,
	}
}

// OrderLockedEvent is emitted when the debit memo is issued and the order
// becomes permanently read-only. Downstream billing consumes this event.
type OrderLockedEvent struct {
	shared.BaseDomainEvent
	OrderNumber    string          `json:"order_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	DebitMemoTotal decimal.Decimal `json:"debit_memo_total"`
	Currency       string          `json:"currency"`
}

// NewOrderLockedEvent creates a new order locked event
func NewOrderLockedEvent(o *Order, entry *AuditEntry) *OrderLockedEvent {
	return &OrderLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderLocked, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		DebitMemoTotal:  entry.Amount,
		Currency:        string(o.Currency),
	}
}

// RestockRequestedEvent instructs the inventory collaborator to put
// returned GOOD stock back into circulation.
type RestockRequestedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	LocationID  uuid.UUID       `json:"location_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewRestockRequestedEvent creates a new restock requested event
func NewRestockRequestedEvent(o *Order, line *OrderLine, quantity decimal.Decimal) *RestockRequestedEvent {
	return &RestockRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRestockRequested, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		LocationID:      o.LocationID,
		ProductID:       line.ProductID,
		Quantity:        quantity,
	}
}

// ScrapRequestedEvent instructs the inventory collaborator to write off
// returned BAD stock.
type ScrapRequestedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	LocationID  uuid.UUID       `json:"location_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewScrapRequestedEvent creates a new scrap requested event
func NewScrapRequestedEvent(o *Order, line *OrderLine, quantity decimal.Decimal) *ScrapRequestedEvent {
	return &ScrapRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeScrapRequested, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		LocationID:      o.LocationID,
		ProductID:       line.ProductID,
		Quantity:        quantity,
	}
}

// StockIssueRequestedEvent instructs the inventory collaborator to issue
// outbound stock for a replacement or complimentary line.
type StockIssueRequestedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	LocationID  uuid.UUID       `json:"location_id"`
	LineID      uuid.UUID       `json:"line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Serials     []string        `json:"serials,omitempty"`
}

// NewStockIssueRequestedEvent creates a new stock issue requested event
func NewStockIssueRequestedEvent(o *Order, line *OrderLine) *StockIssueRequestedEvent {
	return &StockIssueRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockIssueRequested, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		LocationID:      o.LocationID,
		LineID:          line.ID,
		ProductID:       line.ProductID,
		Quantity:        line.OriginalQuantity,
		Serials:         line.Serials,
	}
}
