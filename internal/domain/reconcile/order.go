package reconcile

import (
	"fmt"
	"time"

	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/erp/reconcile/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the reconciliation aggregate root. It owns the quantity ledger
// (lines plus audit entries) for one delivered order and is the unit of
// serialization: all mutations against the same order execute under
// mutual exclusion, enforced by the application layer and backed by the
// aggregate version.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber    string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	LocationID     uuid.UUID            `gorm:"type:uuid;not null"` // stock location serials are drawn from
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null"`
	DeliveredAt    time.Time            `gorm:"not null"`
	Locked         bool                 `gorm:"not null;default:false"`
	LockedAt       *time.Time
	DebitMemoTotal decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Lines          []OrderLine     `gorm:"foreignKey:OrderID"`
	Entries        []AuditEntry    `gorm:"foreignKey:OrderID"`

	removedLineIDs []uuid.UUID `gorm:"-"` // lines deleted by reset, pending persistence
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewDeliveredOrder registers the immutable origin facts handed over by the
// delivery-fulfillment process: the order and its ROOT lines. The engine
// never originates a ROOT line itself and never rewrites these facts.
func NewDeliveredOrder(
	orderNumber string,
	customerID, locationID uuid.UUID,
	currency valueobject.Currency,
	deliveredAt time.Time,
	lines []DeliveredLine,
) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if deliveredAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_DELIVERY_TIME", "Delivery timestamp cannot be zero")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "Delivered order must have at least one line")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		LocationID:        locationID,
		Currency:          currency,
		DeliveredAt:       deliveredAt,
		DebitMemoTotal:    decimal.Zero,
		Lines:             make([]OrderLine, 0, len(lines)),
		Entries:           make([]AuditEntry, 0),
	}

	for _, d := range lines {
		line, err := newRootLine(o.ID, d)
		if err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, *line)
	}

	o.AddDomainEvent(NewOrderDeliveryRegisteredEvent(o))

	return o, nil
}

// GetLine returns a line by its ID, or nil if not present
func (o *Order) GetLine(lineID uuid.UUID) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].ID == lineID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// RootLines returns the lines delivered with the original order
func (o *Order) RootLines() []*OrderLine {
	roots := make([]*OrderLine, 0, len(o.Lines))
	for idx := range o.Lines {
		if o.Lines[idx].IsRoot() {
			roots = append(roots, &o.Lines[idx])
		}
	}
	return roots
}

// RemovedLineIDs returns the IDs of lines deleted by reset operations
// since the aggregate was loaded. The repository hard-deletes these rows
// in the same transaction that persists the rest of the mutation.
func (o *Order) RemovedLineIDs() []uuid.UUID {
	return o.removedLineIDs
}

// ClearRemovedLineIDs resets the pending deletion list after persistence
func (o *Order) ClearRemovedLineIDs() {
	o.removedLineIDs = nil
}

// IsLocked returns true once a debit memo has been issued for the order
func (o *Order) IsLocked() bool {
	return o.Locked
}

// Eligibility evaluates the return window for this order at the given time
func (o *Order) Eligibility(now time.Time) Eligibility {
	return CheckEligibility(o.DeliveredAt, now)
}

// ReturnItem records a pure refund: quantity moves from kept to returned.
// You can only return what is currently kept on the line.
func (o *Order) ReturnItem(
	lineID uuid.UUID,
	quantity decimal.Decimal,
	condition Condition,
	reason, evidenceKey string,
	actorID uuid.UUID,
	now time.Time,
) (*AuditEntry, error) {
	if err := o.guardCustomerMutation(now); err != nil {
		return nil, err
	}
	line := o.GetLine(lineID)
	if line == nil {
		return nil, shared.NewDomainError(ErrCodeLineNotFound, "Order line not found")
	}
	if err := validateMutationInput(quantity, condition, reason); err != nil {
		return nil, err
	}
	if quantity.GreaterThan(line.NetQuantity) {
		return nil, shared.NewDomainError(ErrCodeInsufficientQuantity,
			fmt.Sprintf("Cannot return %s units, only %s currently kept", quantity, line.NetQuantity))
	}

	line.NetQuantity = line.NetQuantity.Sub(quantity)
	line.UpdatedAt = now

	entry := o.appendEntry(AuditEntry{
		Type:        EntryTypeReturn,
		LineID:      &line.ID,
		RootLineID:  o.rootIDOf(line),
		Quantity:    quantity,
		UnitPrice:   line.EffectiveUnitPrice(),
		Condition:   &condition,
		Reason:      reason,
		EvidenceKey: evidenceKey,
		ActorID:     actorID,
		RecordedAt:  now,
	})
	o.UpdatedAt = now

	o.AddDomainEvent(NewItemReturnedEvent(o, line, entry))
	o.addStockDispositionEvent(line, quantity, condition)

	return entry, nil
}

// ReplaceItem atomically deducts quantity from the original line, exactly
// as a return would, and spawns a REPLACEMENT child line for the target
// product. The audit entry is typed REPLACE so the deduction is excluded
// from pure-return aggregation.
func (o *Order) ReplaceItem(
	lineID uuid.UUID,
	quantity decimal.Decimal,
	condition Condition,
	reason string,
	product ReplacementProduct,
	serials []string,
	actorID uuid.UUID,
	now time.Time,
) (*AuditEntry, *OrderLine, error) {
	if err := o.guardCustomerMutation(now); err != nil {
		return nil, nil, err
	}
	line := o.GetLine(lineID)
	if line == nil {
		return nil, nil, shared.NewDomainError(ErrCodeLineNotFound, "Order line not found")
	}
	if err := validateMutationInput(quantity, condition, reason); err != nil {
		return nil, nil, err
	}
	if quantity.GreaterThan(line.NetQuantity) {
		return nil, nil, shared.NewDomainError(ErrCodeInsufficientQuantity,
			fmt.Sprintf("Cannot replace %s units, only %s currently kept", quantity, line.NetQuantity))
	}
	if err := validateProduct(product, quantity, serials); err != nil {
		return nil, nil, err
	}

	newLine := newReplacementLine(o.ID, line.ID, product, quantity, serials)

	line.NetQuantity = line.NetQuantity.Sub(quantity)
	line.UpdatedAt = now
	o.Lines = append(o.Lines, *newLine)

	entry := o.appendEntry(AuditEntry{
		Type:       EntryTypeReplace,
		LineID:     &line.ID,
		RootLineID: o.rootIDOf(line),
		NewLineID:  &newLine.ID,
		Quantity:   quantity,
		UnitPrice:  line.EffectiveUnitPrice(),
		Condition:  &condition,
		Reason:     reason,
		ActorID:    actorID,
		RecordedAt: now,
	})
	o.UpdatedAt = now

	o.AddDomainEvent(NewItemReplacedEvent(o, line, newLine, entry))
	o.addStockDispositionEvent(line, quantity, condition)
	o.AddDomainEvent(NewStockIssueRequestedEvent(o, newLine))

	return entry, o.GetLine(newLine.ID), nil
}

// AddComplimentary adds a free-of-charge line not tied to any existing
// line. No quantity is deducted elsewhere; the line contributes zero to
// revenue totals but is fulfilled physically.
func (o *Order) AddComplimentary(
	product ReplacementProduct,
	quantity decimal.Decimal,
	reason string,
	serials []string,
	actorID uuid.UUID,
	now time.Time,
) (*OrderLine, error) {
	if err := o.guardCustomerMutation(now); err != nil {
		return nil, err
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(ErrCodeInvalidQuantity, "Quantity must be positive")
	}
	if err := validateProduct(product, quantity, serials); err != nil {
		return nil, err
	}

	newLine := newComplimentaryLine(o.ID, product, quantity, serials)
	o.Lines = append(o.Lines, *newLine)

	o.appendEntry(AuditEntry{
		Type:       EntryTypeComplimentary,
		NewLineID:  &newLine.ID,
		Quantity:   quantity,
		UnitPrice:  decimal.Zero,
		Reason:     reason,
		ActorID:    actorID,
		RecordedAt: now,
	})
	o.UpdatedAt = now

	result := o.GetLine(newLine.ID)
	o.AddDomainEvent(NewComplimentaryAddedEvent(o, result))
	o.AddDomainEvent(NewStockIssueRequestedEvent(o, result))

	return result, nil
}

// ResetItem reverses all return and replace effects recorded against one
// root line: descendant lines are removed, the net quantity is restored
// to the original, and a compensating entry is appended. Prior entries
// remain in the trail. Reset bypasses the return window by design - it is
// an administrative correction that must stay possible for as long as the
// order is unlocked.
func (o *Order) ResetItem(lineID uuid.UUID, actorID uuid.UUID, now time.Time) (*AuditEntry, error) {
	if o.Locked {
		return nil, shared.NewDomainError(ErrCodeOrderLocked, "Order is locked; a debit memo has been issued")
	}
	line := o.GetLine(lineID)
	if line == nil {
		return nil, shared.NewDomainError(ErrCodeLineNotFound, "Order line not found")
	}
	if !line.IsRoot() {
		return nil, shared.NewDomainError("INVALID_LINE_KIND", "Only root lines can be reset")
	}

	o.removeDescendantsOf(line.ID, now)
	line.NetQuantity = line.OriginalQuantity
	line.UpdatedAt = now

	entry := o.appendEntry(AuditEntry{
		Type:       EntryTypeResetItem,
		LineID:     &line.ID,
		RootLineID: &line.ID,
		Quantity:   decimal.Zero,
		ActorID:    actorID,
		RecordedAt: now,
	})
	o.UpdatedAt = now

	o.AddDomainEvent(NewItemResetEvent(o, line, entry))

	return entry, nil
}

// ResetAll reverses all reconciliation effects on the order: every root
// line is restored and every child or complimentary line is removed.
// A single RESET_ALL entry records the correction.
func (o *Order) ResetAll(actorID uuid.UUID, now time.Time) (*AuditEntry, error) {
	if o.Locked {
		return nil, shared.NewDomainError(ErrCodeOrderLocked, "Order is locked; a debit memo has been issued")
	}

	kept := o.Lines[:0]
	for idx := range o.Lines {
		line := o.Lines[idx]
		if line.IsRoot() {
			line.NetQuantity = line.OriginalQuantity
			line.UpdatedAt = now
			kept = append(kept, line)
			continue
		}
		o.removedLineIDs = append(o.removedLineIDs, line.ID)
	}
	o.Lines = kept

	entry := o.appendEntry(AuditEntry{
		Type:       EntryTypeResetAll,
		Quantity:   decimal.Zero,
		ActorID:    actorID,
		RecordedAt: now,
	})
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderResetEvent(o, entry))

	return entry, nil
}

// Lock issues the debit memo: the total refunded value is captured as of
// this instant and the order is permanently frozen. There is no unlock;
// once a debit memo exists the reconciled state is financially final.
func (o *Order) Lock(actorID uuid.UUID, now time.Time) (*AuditEntry, error) {
	if o.Locked {
		return nil, shared.NewDomainError(ErrCodeOrderLocked, "Order is already locked")
	}

	total := o.TotalReturnedValue()
	o.Locked = true
	o.LockedAt = &now
	o.DebitMemoTotal = total

	entry := o.appendEntry(AuditEntry{
		Type:       EntryTypeLock,
		Quantity:   decimal.Zero,
		Amount:     total,
		ActorID:    actorID,
		RecordedAt: now,
	})
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderLockedEvent(o, entry))

	return entry, nil
}

// guardCustomerMutation enforces the lock and the return window for
// customer-initiated mutations (return, replace, complimentary).
func (o *Order) guardCustomerMutation(now time.Time) error {
	if o.Locked {
		return shared.NewDomainError(ErrCodeOrderLocked, "Order is locked; a debit memo has been issued")
	}
	if gate := o.Eligibility(now); !gate.Eligible {
		return shared.NewDomainError(ErrCodeNotEligible,
			fmt.Sprintf("Return window expired %s ago", gate.ExpiredSince))
	}
	return nil
}

// rootIDOf resolves the root ancestor of a line by walking the parent
// chain. Complimentary lines are their own root.
func (o *Order) rootIDOf(line *OrderLine) *uuid.UUID {
	current := line
	for current.ParentLineID != nil {
		parent := o.GetLine(*current.ParentLineID)
		if parent == nil {
			break
		}
		current = parent
	}
	id := current.ID
	return &id
}

// removeDescendantsOf removes every line in the subtree under rootID,
// recording their IDs for transactional deletion.
func (o *Order) removeDescendantsOf(rootID uuid.UUID, now time.Time) {
	doomed := map[uuid.UUID]bool{rootID: true}
	// Children always appear after their parents in Lines, so one forward
	// pass finds the whole subtree.
	for idx := range o.Lines {
		line := &o.Lines[idx]
		if line.ParentLineID != nil && doomed[*line.ParentLineID] {
			doomed[line.ID] = true
		}
	}
	delete(doomed, rootID)
	if len(doomed) == 0 {
		return
	}

	kept := o.Lines[:0]
	for idx := range o.Lines {
		if doomed[o.Lines[idx].ID] {
			o.removedLineIDs = append(o.removedLineIDs, o.Lines[idx].ID)
			continue
		}
		kept = append(kept, o.Lines[idx])
	}
	o.Lines = kept
}

// appendEntry stamps and appends an audit entry, returning a pointer to
// the stored copy.
func (o *Order) appendEntry(entry AuditEntry) *AuditEntry {
	entry.ID = uuid.New()
	entry.OrderID = o.ID
	entry.Seq = len(o.Entries) + 1
	o.Entries = append(o.Entries, entry)
	return &o.Entries[len(o.Entries)-1]
}

// addStockDispositionEvent emits the inventory instruction for returned
// physical stock: restock when GOOD, scrap when BAD.
func (o *Order) addStockDispositionEvent(line *OrderLine, quantity decimal.Decimal, condition Condition) {
	if condition == ConditionGood {
		o.AddDomainEvent(NewRestockRequestedEvent(o, line, quantity))
		return
	}
	o.AddDomainEvent(NewScrapRequestedEvent(o, line, quantity))
}

// validateMutationInput checks the shared preconditions of return and
// replace: positive quantity, valid condition, non-empty reason.
func validateMutationInput(quantity decimal.Decimal, condition Condition, reason string) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(ErrCodeInvalidQuantity, "Quantity must be positive")
	}
	if !condition.IsValid() {
		return shared.NewDomainError("INVALID_CONDITION", "Condition must be GOOD or BAD")
	}
	if reason == "" {
		return shared.NewDomainError(ErrCodeInvalidReason, "Reason is required")
	}
	return nil
}

// validateProduct checks the replacement/complimentary product target and
// its serial requirements: serial-tracked products need exactly one serial
// per unit, drawn from available stock by the caller.
func validateProduct(product ReplacementProduct, quantity decimal.Decimal, serials []string) error {
	if product.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if product.Name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if product.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !product.RequiresSerial {
		if len(serials) > 0 {
			return shared.NewDomainError("INVALID_SERIALS", "Product is not serial-tracked")
		}
		return nil
	}
	if !quantity.IsInteger() {
		return shared.NewDomainError(ErrCodeInvalidQuantity, "Serial-tracked products require whole-number quantities")
	}
	want := int(quantity.IntPart())
	if len(serials) < want {
		return shared.NewDomainError(ErrCodeInsufficientSerials,
			fmt.Sprintf("Need %d serials, got %d", want, len(serials)))
	}
	if len(serials) > want {
		return shared.NewDomainError("INVALID_SERIALS",
			fmt.Sprintf("Need exactly %d serials, got %d", want, len(serials)))
	}
	return nil
}
