package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/infrastructure/persistence"
)

// TestSerialInventory_Integration tests the serialized stock pool against
// a real PostgreSQL database.
func TestSerialInventory_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	inventory := persistence.NewGormSerialInventory(testDB.DB)
	ctx := context.Background()

	productID := uuid.New()
	locationID := uuid.New()
	testDB.SeedProductSerials(productID, locationID, "SN-1001", "SN-1002", "SN-1003")

	t.Run("AvailableSerials respects limit and location", func(t *testing.T) {
		serials, err := inventory.AvailableSerials(ctx, productID, locationID, 2)
		require.NoError(t, err)
		assert.Len(t, serials, 2)

		// A different location has no stock for this product
		serials, err = inventory.AvailableSerials(ctx, productID, uuid.New(), 10)
		require.NoError(t, err)
		assert.Empty(t, serials)
	})

	t.Run("Reserve removes serials from the available pool", func(t *testing.T) {
		err := inventory.Reserve(ctx, productID, locationID, []string{"SN-1001", "SN-1002"})
		require.NoError(t, err)

		remaining, err := inventory.AvailableSerials(ctx, productID, locationID, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"SN-1003"}, remaining)
	})

	t.Run("Reserve is all-or-nothing", func(t *testing.T) {
		// SN-1001 is already reserved, so the batch must fail and leave
		// SN-1003 untouched.
		err := inventory.Reserve(ctx, productID, locationID, []string{"SN-1003", "SN-1001"})
		require.Error(t, err)
		assert.True(t, reconcile.IsCode(err, reconcile.ErrCodeInsufficientSerials))

		remaining, err := inventory.AvailableSerials(ctx, productID, locationID, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"SN-1003"}, remaining)
	})

	t.Run("Release returns serials to the pool", func(t *testing.T) {
		err := inventory.Release(ctx, productID, locationID, []string{"SN-1001"})
		require.NoError(t, err)

		remaining, err := inventory.AvailableSerials(ctx, productID, locationID, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"SN-1001", "SN-1003"}, remaining)
	})

	t.Run("Release ignores serials that were never reserved", func(t *testing.T) {
		err := inventory.Release(ctx, productID, locationID, []string{"SN-1003"})
		require.NoError(t, err)

		remaining, err := inventory.AvailableSerials(ctx, productID, locationID, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"SN-1001", "SN-1003"}, remaining)
	})
}
