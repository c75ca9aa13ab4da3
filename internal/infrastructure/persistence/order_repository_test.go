package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/erp/reconcile/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&reconcile.Order{}, &reconcile.OrderLine{}, &reconcile.AuditEntry{})
	require.NoError(t, err)

	return db
}

var repoDeliveredAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newPersistedOrder(t *testing.T, repo *GormOrderRepository) *reconcile.Order {
	order, err := reconcile.NewDeliveredOrder(
		"SO-"+uuid.NewString()[:8],
		uuid.New(), uuid.New(),
		valueobject.USD,
		repoDeliveredAt,
		[]reconcile.DeliveredLine{
			{ProductID: uuid.New(), ProductName: "Widget", UnitPrice: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(10)},
		},
	)
	require.NoError(t, err)
	order.ClearDomainEvents()
	require.NoError(t, repo.Save(context.Background(), order))
	return order
}

func TestGormOrderRepository_SaveAndLoad(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	t.Run("round-trips a fresh order", func(t *testing.T) {
		order := newPersistedOrder(t, repo)

		loaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderNumber, loaded.OrderNumber)
		assert.Equal(t, 1, len(loaded.Lines))
		assert.True(t, loaded.Lines[0].NetQuantity.Equal(decimal.NewFromInt(10)))
		assert.Empty(t, loaded.Entries)
		assert.False(t, loaded.Locked)
	})

	t.Run("persists mutations, entries and line changes together", func(t *testing.T) {
		order := newPersistedOrder(t, repo)
		loaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)

		now := repoDeliveredAt.Add(time.Hour)
		_, err = loaded.ReturnItem(loaded.Lines[0].ID, decimal.NewFromInt(3), reconcile.ConditionGood, "unwanted", "", uuid.New(), now)
		require.NoError(t, err)
		_, _, err = loaded.ReplaceItem(loaded.Lines[0].ID, decimal.NewFromInt(2), reconcile.ConditionBad, "defective",
			reconcile.ReplacementProduct{ID: uuid.New(), Name: "Widget Pro", UnitPrice: decimal.NewFromInt(150)}, nil, uuid.New(), now)
		require.NoError(t, err)
		loaded.ClearDomainEvents()
		require.NoError(t, repo.Save(ctx, loaded))

		reloaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, len(reloaded.Lines))
		assert.Equal(t, 2, len(reloaded.Entries))
		assert.Equal(t, reconcile.EntryTypeReturn, reloaded.Entries[0].Type)
		assert.Equal(t, reconcile.EntryTypeReplace, reloaded.Entries[1].Type)
		assert.True(t, reloaded.ReturnedQuantity(reloaded.Lines[0].ID).Equal(decimal.NewFromInt(3)))
		assert.Empty(t, reloaded.CheckConservation())
	})

	t.Run("saving twice does not duplicate audit entries", func(t *testing.T) {
		order := newPersistedOrder(t, repo)
		loaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)

		_, err = loaded.ReturnItem(loaded.Lines[0].ID, decimal.NewFromInt(1), reconcile.ConditionGood, "unwanted", "", uuid.New(), repoDeliveredAt.Add(time.Hour))
		require.NoError(t, err)
		loaded.ClearDomainEvents()
		require.NoError(t, repo.Save(ctx, loaded))
		require.NoError(t, repo.Save(ctx, loaded))

		reloaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, len(reloaded.Entries))
	})

	t.Run("deletes lines removed by reset", func(t *testing.T) {
		order := newPersistedOrder(t, repo)
		loaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)

		now := repoDeliveredAt.Add(time.Hour)
		_, newLine, err := loaded.ReplaceItem(loaded.Lines[0].ID, decimal.NewFromInt(2), reconcile.ConditionBad, "defective",
			reconcile.ReplacementProduct{ID: uuid.New(), Name: "Widget Pro", UnitPrice: decimal.NewFromInt(150)}, nil, uuid.New(), now)
		require.NoError(t, err)
		loaded.ClearDomainEvents()
		require.NoError(t, repo.Save(ctx, loaded))

		loaded, err = repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		root := loaded.RootLines()[0]
		_, err = loaded.ResetItem(root.ID, uuid.New(), now.Add(time.Minute))
		require.NoError(t, err)
		loaded.ClearDomainEvents()
		require.NoError(t, repo.Save(ctx, loaded))
		assert.Empty(t, loaded.RemovedLineIDs())

		reloaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, len(reloaded.Lines))
		assert.Nil(t, reloaded.GetLine(newLine.ID))
		assert.True(t, reloaded.Lines[0].NetQuantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("returns not found for unknown order", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by order number", func(t *testing.T) {
		order := newPersistedOrder(t, repo)

		loaded, err := repo.FindByOrderNumber(ctx, order.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, order.ID, loaded.ID)
	})
}

func TestGormOrderRepository_OptimisticLocking(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	order := newPersistedOrder(t, repo)

	first, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	now := repoDeliveredAt.Add(time.Hour)
	_, err = first.ReturnItem(first.Lines[0].ID, decimal.NewFromInt(1), reconcile.ConditionGood, "unwanted", "", uuid.New(), now)
	require.NoError(t, err)
	first.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, first))

	_, err = second.ReturnItem(second.Lines[0].ID, decimal.NewFromInt(1), reconcile.ConditionGood, "unwanted", "", uuid.New(), now)
	require.NoError(t, err)
	second.ClearDomainEvents()
	err = repo.Save(ctx, second)
	assert.True(t, reconcile.IsCode(err, reconcile.ErrCodeConcurrencyConflict))
}

func TestGormOrderRepository_List(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	for i := 0; i < 3; i++ {
		order, err := reconcile.NewDeliveredOrder(
			"SO-LIST-"+uuid.NewString()[:8],
			customerID, uuid.New(),
			valueobject.USD,
			repoDeliveredAt,
			[]reconcile.DeliveredLine{
				{ProductID: uuid.New(), ProductName: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: decimal.NewFromInt(1)},
			},
		)
		require.NoError(t, err)
		order.ClearDomainEvents()
		require.NoError(t, repo.Save(ctx, order))
	}
	newPersistedOrder(t, repo) // different customer

	filter := shared.DefaultFilter()
	filter.Filters["customer_id"] = customerID

	page, err := repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 3, len(page.Items))
	for _, item := range page.Items {
		assert.Equal(t, 1, len(item.Lines))
	}
}

func TestGormSerialInventory(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ProductSerial{}))
	repo := NewGormSerialInventory(db)
	ctx := context.Background()

	productID := uuid.New()
	locationID := uuid.New()
	for _, s := range []string{"SN-1", "SN-2", "SN-3"} {
		require.NoError(t, db.Create(&ProductSerial{
			ID: uuid.New(), ProductID: productID, LocationID: locationID,
			Serial: s, Status: SerialStatusAvailable,
		}).Error)
	}

	t.Run("lists available serials up to the limit", func(t *testing.T) {
		serials, err := repo.AvailableSerials(ctx, productID, locationID, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, len(serials))
	})

	t.Run("reserve is all-or-nothing", func(t *testing.T) {
		require.NoError(t, repo.Reserve(ctx, productID, locationID, []string{"SN-1", "SN-2"}))

		err := repo.Reserve(ctx, productID, locationID, []string{"SN-2", "SN-3"})
		assert.True(t, reconcile.IsCode(err, reconcile.ErrCodeInsufficientSerials))

		serials, err := repo.AvailableSerials(ctx, productID, locationID, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"SN-3"}, serials)
	})

	t.Run("release returns serials to the pool", func(t *testing.T) {
		require.NoError(t, repo.Release(ctx, productID, locationID, []string{"SN-1"}))

		serials, err := repo.AvailableSerials(ctx, productID, locationID, 10)
		require.NoError(t, err)
		assert.Contains(t, serials, "SN-1")
	})
}
