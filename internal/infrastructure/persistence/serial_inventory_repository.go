package persistence

import (
	"context"
	"time"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Serial stock states
const (
	SerialStatusAvailable = "AVAILABLE"
	SerialStatusReserved  = "RESERVED"
	SerialStatusIssued    = "ISSUED"
)

// ProductSerial is the storage model for one serialized unit in stock
type ProductSerial struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index:idx_serial_lookup"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;index:idx_serial_lookup"`
	Serial     string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Status     string    `gorm:"type:varchar(20);not null;default:'AVAILABLE'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (ProductSerial) TableName() string {
	return "product_serials"
}

// GormSerialInventory implements reconcile.SerialInventory using GORM
type GormSerialInventory struct {
	db *gorm.DB
}

// NewGormSerialInventory creates a new GormSerialInventory
func NewGormSerialInventory(db *gorm.DB) *GormSerialInventory {
	return &GormSerialInventory{db: db}
}

// AvailableSerials returns up to limit available serials for a product at
// a location, oldest stock first.
func (r *GormSerialInventory) AvailableSerials(ctx context.Context, productID, locationID uuid.UUID, limit int) ([]string, error) {
	var serials []string
	if err := r.db.WithContext(ctx).
		Model(&ProductSerial{}).
		Where("product_id = ? AND location_id = ? AND status = ?", productID, locationID, SerialStatusAvailable).
		Order("created_at ASC").
		Limit(limit).
		Pluck("serial", &serials).Error; err != nil {
		return nil, err
	}
	return serials, nil
}

// Reserve marks the given serials as reserved. All-or-nothing: if any
// serial is no longer available the whole reservation fails.
func (r *GormSerialInventory) Reserve(ctx context.Context, productID, locationID uuid.UUID, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ProductSerial{}).
			Where("product_id = ? AND location_id = ? AND serial IN ? AND status = ?",
				productID, locationID, serials, SerialStatusAvailable).
			Updates(map[string]any{"status": SerialStatusReserved, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(serials)) {
			return shared.NewDomainError(reconcile.ErrCodeInsufficientSerials,
				"One or more serials are no longer available")
		}
		return nil
	})
}

// Release returns reserved serials to the available pool
func (r *GormSerialInventory) Release(ctx context.Context, productID, locationID uuid.UUID, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&ProductSerial{}).
		Where("product_id = ? AND location_id = ? AND serial IN ? AND status = ?",
			productID, locationID, serials, SerialStatusReserved).
		Updates(map[string]any{"status": SerialStatusAvailable, "updated_at": time.Now()}).Error
}
