package reconcile

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditEntry is an immutable record appended for every mutation.
// Entries are never deleted; reset operations append compensating entries
// rather than erasing history, so the trail stays a true chronological
// record even after live quantities are restored.
type AuditEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Seq         int             `gorm:"not null"` // per-order append order
	Type        EntryType       `gorm:"type:varchar(20);not null"`
	LineID      *uuid.UUID      `gorm:"type:uuid;index"` // nil for RESET_ALL and LOCK
	RootLineID  *uuid.UUID      `gorm:"type:uuid"`       // root ancestor of LineID at append time
	NewLineID   *uuid.UUID      `gorm:"type:uuid"`       // child line created by REPLACE/COMPLIMENTARY
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // line price at time of entry
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // debit memo total for LOCK
	Condition   *Condition      `gorm:"type:varchar(10)"`
	Reason      string          `gorm:"type:varchar(500)"`
	EvidenceKey string          `gorm:"type:varchar(255)"` // object storage reference, not the blob
	ActorID     uuid.UUID       `gorm:"type:uuid;not null"`
	RecordedAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// IsCompensating returns true for entries that record a correction
// rather than a customer-initiated mutation
func (e *AuditEntry) IsCompensating() bool {
	return e.Type == EntryTypeResetItem || e.Type == EntryTypeResetAll
}

// Value returns the monetary value this entry moved (quantity x unit price)
func (e *AuditEntry) Value() decimal.Decimal {
	return e.Quantity.Mul(e.UnitPrice)
}
