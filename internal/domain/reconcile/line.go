package reconcile

import (
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one unit-of-account row within a delivered order.
// ROOT lines are immutable origin facts supplied by the delivery process;
// the engine only ever adjusts NetQuantity and adds child lines.
type OrderLine struct {
	shared.BaseEntity
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName      string          `gorm:"type:varchar(255);not null"`
	Kind             LineKind        `gorm:"type:varchar(20);not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OriginalQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetQuantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ParentLineID     *uuid.UUID      `gorm:"type:uuid;index"` // set only for REPLACEMENT lines
	RequiresSerial   bool            `gorm:"not null;default:false"`
	Serials          []string        `gorm:"serializer:json"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// newRootLine creates a ROOT line from delivery facts.
// ROOT lines start fully kept: net equals original.
func newRootLine(orderID uuid.UUID, d DeliveredLine) (*OrderLine, error) {
	if d.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if d.ProductName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if d.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(ErrCodeInvalidQuantity, "Delivered quantity must be positive")
	}
	if d.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &OrderLine{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          orderID,
		ProductID:        d.ProductID,
		ProductName:      d.ProductName,
		Kind:             LineKindRoot,
		UnitPrice:        d.UnitPrice,
		OriginalQuantity: d.Quantity,
		NetQuantity:      d.Quantity,
		RequiresSerial:   d.RequiresSerial,
		Serials:          d.Serials,
	}, nil
}

// newReplacementLine creates a child line spawned by a replace operation.
// Replacement lines have no prior life: original equals net at creation.
func newReplacementLine(orderID, parentLineID uuid.UUID, p ReplacementProduct, quantity decimal.Decimal, serials []string) *OrderLine {
	parent := parentLineID
	return &OrderLine{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          orderID,
		ProductID:        p.ID,
		ProductName:      p.Name,
		Kind:             LineKindReplacement,
		UnitPrice:        p.UnitPrice,
		OriginalQuantity: quantity,
		NetQuantity:      quantity,
		ParentLineID:     &parent,
		RequiresSerial:   p.RequiresSerial,
		Serials:          serials,
	}
}

// newComplimentaryLine creates a free-of-charge line. Complimentary lines
// are root-equivalent (no parent) and contribute zero to revenue totals
// regardless of the product's nominal price.
func newComplimentaryLine(orderID uuid.UUID, p ReplacementProduct, quantity decimal.Decimal, serials []string) *OrderLine {
	return &OrderLine{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          orderID,
		ProductID:        p.ID,
		ProductName:      p.Name,
		Kind:             LineKindComplimentary,
		UnitPrice:        p.UnitPrice,
		OriginalQuantity: quantity,
		NetQuantity:      quantity,
		RequiresSerial:   p.RequiresSerial,
		Serials:          serials,
	}
}

// IsRoot returns true for lines delivered with the original order
func (l *OrderLine) IsRoot() bool {
	return l.Kind == LineKindRoot
}

// IsChild returns true for lines spawned by a replace operation
func (l *OrderLine) IsChild() bool {
	return l.ParentLineID != nil
}

// EffectiveUnitPrice returns the price used for monetary aggregation.
// Complimentary lines always contribute zero.
func (l *OrderLine) EffectiveUnitPrice() decimal.Decimal {
	if l.Kind == LineKindComplimentary {
		return decimal.Zero
	}
	return l.UnitPrice
}

// DeliveredLine carries the immutable origin facts for one ROOT line,
// as supplied by the delivery-fulfillment collaborator.
type DeliveredLine struct {
	ProductID      uuid.UUID
	ProductName    string
	UnitPrice      decimal.Decimal
	Quantity       decimal.Decimal
	RequiresSerial bool
	Serials        []string
}

// ReplacementProduct identifies the target product of a replace or
// complimentary operation.
type ReplacementProduct struct {
	ID             uuid.UUID
	Name           string
	UnitPrice      decimal.Decimal
	RequiresSerial bool
}
