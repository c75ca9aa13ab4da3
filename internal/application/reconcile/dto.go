package reconcile

import (
	"time"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// RegisterDeliveryRequest hands over the immutable delivery facts that
// open a reconciliation ledger for an order.
type RegisterDeliveryRequest struct {
	OrderNumber string                 `json:"order_number" binding:"required,min=1,max=50"`
	CustomerID  uuid.UUID              `json:"customer_id" binding:"required"`
	LocationID  uuid.UUID              `json:"location_id" binding:"required"`
	Currency    string                 `json:"currency" binding:"omitempty,len=3"`
	DeliveredAt time.Time              `json:"delivered_at" binding:"required"`
	Lines       []DeliveredLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// DeliveredLineRequest represents one delivered line in the handover
type DeliveredLineRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	ProductName    string          `json:"product_name" binding:"required,min=1,max=255"`
	UnitPrice      decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	RequiresSerial bool            `json:"requires_serial"`
	Serials        []string        `json:"serials"`
}

// ReturnItemRequest represents a request to return quantity from a line
type ReturnItemRequest struct {
	LineID      uuid.UUID       `json:"line_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Condition   string          `json:"condition" binding:"required,oneof=GOOD BAD"`
	Reason      string          `json:"reason" binding:"required,min=1,max=500"`
	EvidenceKey string          `json:"evidence_key" binding:"omitempty,max=255"`
	ActorID     uuid.UUID       `json:"actor_id" binding:"required"`
}

// ReplaceItemRequest represents a request to replace quantity with
// another product. Serials may be omitted for serial-tracked products;
// the service then draws them from available stock at the order location.
type ReplaceItemRequest struct {
	LineID      uuid.UUID       `json:"line_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Condition   string          `json:"condition" binding:"required,oneof=GOOD BAD"`
	Reason      string          `json:"reason" binding:"required,min=1,max=500"`
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=255"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Serialized  bool            `json:"serialized"`
	Serials     []string        `json:"serials"`
	ActorID     uuid.UUID       `json:"actor_id" binding:"required"`
}

// AddComplimentaryRequest represents a request to add a free-of-charge line
type AddComplimentaryRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=255"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Reason      string          `json:"reason" binding:"omitempty,max=500"`
	Serialized  bool            `json:"serialized"`
	Serials     []string        `json:"serials"`
	ActorID     uuid.UUID       `json:"actor_id" binding:"required"`
}

// ResetItemRequest represents a request to reverse one root line
type ResetItemRequest struct {
	LineID  uuid.UUID `json:"line_id" binding:"required"`
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

// ResetAllRequest represents a request to reverse the whole order
type ResetAllRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

// LockOrderRequest represents a request to issue the debit memo.
// ExpectedTotal carries the previewed amount; when set, the lock fails if
// the live total has drifted since the preview was shown.
type LockOrderRequest struct {
	ActorID       uuid.UUID        `json:"actor_id" binding:"required"`
	ExpectedTotal *decimal.Decimal `json:"expected_total"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Locked     *bool      `form:"locked"`
	StartDate  *time.Time `form:"start_date"`
	EndDate    *time.Time `form:"end_date"`
	Page       int        `form:"page" binding:"min=0"`
	PageSize   int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AuditTrailFilter represents filter options for the audit trail list
type AuditTrailFilter struct {
	Type     string `form:"type" binding:"omitempty,oneof=RETURN REPLACE COMPLIMENTARY RESET_ITEM RESET_ALL LOCK"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Responses ====================

// OrderResponse represents a reconciliation order in API responses
type OrderResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	CustomerID     uuid.UUID           `json:"customer_id"`
	LocationID     uuid.UUID           `json:"location_id"`
	Currency       string              `json:"currency"`
	DeliveredAt    time.Time           `json:"delivered_at"`
	Eligible       bool                `json:"eligible"`
	WindowClosesAt time.Time           `json:"window_closes_at"`
	Locked         bool                `json:"locked"`
	LockedAt       *time.Time          `json:"locked_at,omitempty"`
	DebitMemoTotal decimal.Decimal     `json:"debit_memo_total"`
	Lines          []LineResponse      `json:"lines"`
	Version        int                 `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// LineResponse represents an order line in API responses
type LineResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Kind             string          `json:"kind"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	OriginalQuantity decimal.Decimal `json:"original_quantity"`
	NetQuantity      decimal.Decimal `json:"net_quantity"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	ReplacedQuantity decimal.Decimal `json:"replaced_quantity"`
	ParentLineID     *uuid.UUID      `json:"parent_line_id,omitempty"`
	Serials          []string        `json:"serials,omitempty"`
}

// MutationResponse reports the outcome of a single reconciliation mutation
type MutationResponse struct {
	Order     OrderResponse       `json:"order"`
	Entry     *AuditEntryResponse `json:"entry,omitempty"`
	NewLineID *uuid.UUID          `json:"new_line_id,omitempty"`
}

// AuditEntryResponse represents one audit trail entry in API responses
type AuditEntryResponse struct {
	ID          uuid.UUID       `json:"id"`
	Seq         int             `json:"seq"`
	Type        string          `json:"type"`
	LineID      *uuid.UUID      `json:"line_id,omitempty"`
	NewLineID   *uuid.UUID      `json:"new_line_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Condition   *string         `json:"condition,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	EvidenceKey string          `json:"evidence_key,omitempty"`
	ActorID     uuid.UUID       `json:"actor_id"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// SummaryResponse represents the financial summary of an order
type SummaryResponse struct {
	OrderID            uuid.UUID       `json:"order_id"`
	OrderNumber        string          `json:"order_number"`
	Currency           string          `json:"currency"`
	OriginalTotal      decimal.Decimal `json:"original_total"`
	CurrentNetTotal    decimal.Decimal `json:"current_net_total"`
	TotalReturnedValue decimal.Decimal `json:"total_returned_value"`
	TotalReplacedValue decimal.Decimal `json:"total_replaced_value"`
	DebitMemoTotal     decimal.Decimal `json:"debit_memo_total"`
	Locked             bool            `json:"locked"`
}

// DebitMemoPreviewResponse is the first phase of the lock flow: the
// amount a lock would capture right now, for operator confirmation.
type DebitMemoPreviewResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Currency      string          `json:"currency"`
	DebitMemoTotal decimal.Decimal `json:"debit_memo_total"`
	EntryCount    int             `json:"entry_count"`
}

// ResetPreviewResponse is the first phase of a full reset: what the
// reset would restore and remove right now, for operator confirmation.
type ResetPreviewResponse struct {
	OrderID          uuid.UUID          `json:"order_id"`
	OrderNumber      string             `json:"order_number"`
	RestoredLines    []RestoredLineView `json:"restored_lines"`
	RemovedLineCount int                `json:"removed_line_count"`
}

// RestoredLineView describes one root line a reset would restore
type RestoredLineView struct {
	LineID           uuid.UUID       `json:"line_id"`
	ProductName      string          `json:"product_name"`
	NetQuantity      decimal.Decimal `json:"net_quantity"`
	OriginalQuantity decimal.Decimal `json:"original_quantity"`
}

// EligibilityResponse reports the return window state of an order
type EligibilityResponse struct {
	OrderID        uuid.UUID `json:"order_id"`
	Eligible       bool      `json:"eligible"`
	RemainingSecs  int64     `json:"remaining_seconds"`
	ExpiredSecs    int64     `json:"expired_seconds"`
	WindowClosesAt time.Time `json:"window_closes_at"`
	ClockVerified  bool      `json:"clock_verified"`
}

// ==================== Converters ====================

// ToOrderResponse converts a domain order to its API representation.
// Eligibility is evaluated against the supplied reading so the response
// reflects the same "now" the request was gated with.
func ToOrderResponse(o *reconcile.Order, now time.Time) OrderResponse {
	lines := make([]LineResponse, 0, len(o.Lines))
	for idx := range o.Lines {
		lines = append(lines, ToLineResponse(o, &o.Lines[idx]))
	}
	return OrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		LocationID:     o.LocationID,
		Currency:       string(o.Currency),
		DeliveredAt:    o.DeliveredAt,
		Eligible:       o.Eligibility(now).Eligible && !o.Locked,
		WindowClosesAt: o.DeliveredAt.Add(reconcile.ReturnWindow),
		Locked:         o.Locked,
		LockedAt:       o.LockedAt,
		DebitMemoTotal: o.DebitMemoTotal,
		Lines:          lines,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// ToLineResponse converts a domain line to its API representation
func ToLineResponse(o *reconcile.Order, line *reconcile.OrderLine) LineResponse {
	return LineResponse{
		ID:               line.ID,
		ProductID:        line.ProductID,
		ProductName:      line.ProductName,
		Kind:             line.Kind.String(),
		UnitPrice:        line.UnitPrice,
		OriginalQuantity: line.OriginalQuantity,
		NetQuantity:      line.NetQuantity,
		ReturnedQuantity: o.ReturnedQuantity(line.ID),
		ReplacedQuantity: o.ReplacedQuantity(line.ID),
		ParentLineID:     line.ParentLineID,
		Serials:          line.Serials,
	}
}

// ToAuditEntryResponse converts a domain audit entry to its API representation
func ToAuditEntryResponse(e *reconcile.AuditEntry) AuditEntryResponse {
	var condition *string
	if e.Condition != nil {
		c := e.Condition.String()
		condition = &c
	}
	return AuditEntryResponse{
		ID:          e.ID,
		Seq:         e.Seq,
		Type:        e.Type.String(),
		LineID:      e.LineID,
		NewLineID:   e.NewLineID,
		Quantity:    e.Quantity,
		UnitPrice:   e.UnitPrice,
		Amount:      e.Amount,
		Condition:   condition,
		Reason:      e.Reason,
		EvidenceKey: e.EvidenceKey,
		ActorID:     e.ActorID,
		RecordedAt:  e.RecordedAt,
	}
}

// ToSummaryResponse converts a domain summary to its API representation
func ToSummaryResponse(o *reconcile.Order) SummaryResponse {
	s := o.Summarize()
	return SummaryResponse{
		OrderID:            o.ID,
		OrderNumber:        o.OrderNumber,
		Currency:           string(o.Currency),
		OriginalTotal:      s.OriginalTotal.Amount(),
		CurrentNetTotal:    s.CurrentNetTotal.Amount(),
		TotalReturnedValue: s.TotalReturnedValue.Amount(),
		TotalReplacedValue: s.TotalReplacedValue.Amount(),
		DebitMemoTotal:     s.DebitMemoTotal.Amount(),
		Locked:             s.Locked,
	}
}
