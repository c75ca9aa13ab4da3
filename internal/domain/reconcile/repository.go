package reconcile

import (
	"context"

	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository persists the reconciliation aggregate.
// Save must write the order, its lines, its new audit entries and the
// deletion of reset lines in one transaction, and must fail with a
// CONCURRENCY_CONFLICT domain error when the stored version does not
// match the loaded one.
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[Order], error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditEntryRepository provides read access to the audit trail beyond
// what is loaded with the aggregate. Entries are append-only; there are
// no mutation methods here on purpose.
type AuditEntryRepository interface {
	ListByOrder(ctx context.Context, orderID uuid.UUID, filter shared.Filter) (*shared.Paginated[AuditEntry], error)
	ListByActor(ctx context.Context, actorID uuid.UUID, filter shared.Filter) (*shared.Paginated[AuditEntry], error)
}

// SerialInventory answers serial availability questions for
// serial-tracked products at a stock location. The reconciliation engine
// validates against it before committing a replacement; actual stock
// movement happens in the inventory collaborator via events.
type SerialInventory interface {
	AvailableSerials(ctx context.Context, productID, locationID uuid.UUID, limit int) ([]string, error)
	Reserve(ctx context.Context, productID, locationID uuid.UUID, serials []string) error
	Release(ctx context.Context, productID, locationID uuid.UUID, serials []string) error
}
