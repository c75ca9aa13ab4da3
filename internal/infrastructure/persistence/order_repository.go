package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements reconcile.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads the full aggregate: order, lines and audit entries in
// append order.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconcile.Order, error) {
	var order reconcile.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber loads the full aggregate by its business number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*reconcile.Order, error) {
	var order reconcile.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Save persists the aggregate in one transaction: the order row under an
// optimistic version check, line upserts, deletion of lines removed by
// resets, and the new audit entries. Entries are insert-only; an existing
// entry row is never updated.
func (r *GormOrderRepository) Save(ctx context.Context, order *reconcile.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&reconcile.Order{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return r.insert(tx, order)
		}
		return r.update(tx, order)
	})
	if err != nil {
		return err
	}
	order.ClearRemovedLineIDs()
	return nil
}

func (r *GormOrderRepository) insert(tx *gorm.DB, order *reconcile.Order) error {
	if err := tx.Omit("Lines", "Entries").Create(order).Error; err != nil {
		return err
	}
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if err := tx.Create(&order.Lines[i]).Error; err != nil {
			return err
		}
	}
	return r.insertNewEntries(tx, order)
}

func (r *GormOrderRepository) update(tx *gorm.DB, order *reconcile.Order) error {
	currentVersion := order.Version
	order.Version++
	order.UpdatedAt = time.Now()

	result := tx.Model(&reconcile.Order{}).
		Where("id = ? AND version = ?", order.ID, currentVersion).
		Updates(map[string]any{
			"locked":           order.Locked,
			"locked_at":        order.LockedAt,
			"debit_memo_total": order.DebitMemoTotal,
			"version":          order.Version,
			"updated_at":       order.UpdatedAt,
		})
	if result.Error != nil {
		order.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		order.Version = currentVersion
		return shared.NewDomainError(reconcile.ErrCodeConcurrencyConflict,
			"The order has been modified by another operation")
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if err := tx.Save(&order.Lines[i]).Error; err != nil {
			return err
		}
	}

	if removed := order.RemovedLineIDs(); len(removed) > 0 {
		if err := tx.Where("id IN ?", removed).Delete(&reconcile.OrderLine{}).Error; err != nil {
			return err
		}
	}

	return r.insertNewEntries(tx, order)
}

// insertNewEntries appends audit entries added since the aggregate was
// loaded. OnConflict DoNothing keeps already-persisted entries untouched,
// preserving the append-only trail.
func (r *GormOrderRepository) insertNewEntries(tx *gorm.DB, order *reconcile.Order) error {
	for i := range order.Entries {
		order.Entries[i].OrderID = order.ID
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&order.Entries[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// List retrieves orders with filtering and pagination. Lines are
// preloaded; the audit trail is not, use the audit repository for that.
func (r *GormOrderRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[reconcile.Order], error) {
	query := r.db.WithContext(ctx).Model(&reconcile.Order{})
	query = r.applyFilters(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var orders []reconcile.Order
	if err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(orders, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (r *GormOrderRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("order_number ILIKE ?", "%"+filter.Search+"%")
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if locked, ok := filter.Filters["locked"]; ok {
		query = query.Where("locked = ?", locked)
	}
	if startDate, ok := filter.Filters["start_date"]; ok {
		query = query.Where("delivered_at >= ?", startDate)
	}
	if endDate, ok := filter.Filters["end_date"]; ok {
		query = query.Where("delivered_at <= ?", endDate)
	}
	return query
}

// Delete removes an order and its children. Intended for administrative
// cleanup of wrongly registered deliveries, not for normal operation.
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&reconcile.AuditEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&reconcile.OrderLine{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&reconcile.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
