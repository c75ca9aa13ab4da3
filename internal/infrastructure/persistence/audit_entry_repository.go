package persistence

import (
	"context"
	"fmt"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditEntryRepository implements reconcile.AuditEntryRepository
// using GORM. Read-only: entries are written exclusively through the
// order repository's transactional save.
type GormAuditEntryRepository struct {
	db *gorm.DB
}

// NewGormAuditEntryRepository creates a new GormAuditEntryRepository
func NewGormAuditEntryRepository(db *gorm.DB) *GormAuditEntryRepository {
	return &GormAuditEntryRepository{db: db}
}

// ListByOrder retrieves the audit trail of one order, in sequence order
// unless the filter asks otherwise.
func (r *GormAuditEntryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, filter shared.Filter) (*shared.Paginated[reconcile.AuditEntry], error) {
	query := r.db.WithContext(ctx).Model(&reconcile.AuditEntry{}).Where("order_id = ?", orderID)
	query = r.applyFilters(query, filter)
	return r.paginate(query, filter, "seq")
}

// ListByActor retrieves all entries recorded by one operator across orders
func (r *GormAuditEntryRepository) ListByActor(ctx context.Context, actorID uuid.UUID, filter shared.Filter) (*shared.Paginated[reconcile.AuditEntry], error) {
	query := r.db.WithContext(ctx).Model(&reconcile.AuditEntry{}).Where("actor_id = ?", actorID)
	query = r.applyFilters(query, filter)
	return r.paginate(query, filter, "recorded_at")
}

func (r *GormAuditEntryRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if entryType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", entryType)
	}
	if lineID, ok := filter.Filters["line_id"]; ok {
		query = query.Where("line_id = ?", lineID)
	}
	if startDate, ok := filter.Filters["start_date"]; ok {
		query = query.Where("recorded_at >= ?", startDate)
	}
	if endDate, ok := filter.Filters["end_date"]; ok {
		query = query.Where("recorded_at <= ?", endDate)
	}
	return query
}

func (r *GormAuditEntryRepository) paginate(query *gorm.DB, filter shared.Filter, defaultOrder string) (*shared.Paginated[reconcile.AuditEntry], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, AuditEntrySortFields, defaultOrder)
	orderDir := ValidateSortOrder(filter.OrderDir)

	var entries []reconcile.AuditEntry
	if err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}
