package reconcile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_DerivedQuantities(t *testing.T) {
	t.Run("accumulate across multiple returns", func(t *testing.T) {
		order := createTestOrder(t)
		root := &order.Lines[0]

		for i := 0; i < 3; i++ {
			_, err := order.ReturnItem(root.ID, decimal.NewFromInt(2), ConditionGood, "unwanted", "", uuid.New(), inWindow())
			require.NoError(t, err)
		}

		assert.True(t, order.ReturnedQuantity(root.ID).Equal(decimal.NewFromInt(6)))
		assert.True(t, order.TotalReturnedValue().Equal(decimal.NewFromInt(600)))
	})

	t.Run("reset clears contributions of removed descendant lines", func(t *testing.T) {
		order := createTestOrder(t)
		root := &order.Lines[0]

		_, child, err := order.ReplaceItem(root.ID, decimal.NewFromInt(4), ConditionBad, "defective",
			ReplacementProduct{ID: uuid.New(), Name: "Widget Pro", UnitPrice: decimal.NewFromInt(150)}, nil, uuid.New(), inWindow())
		require.NoError(t, err)
		childID := child.ID

		_, err = order.ReturnItem(childID, decimal.NewFromInt(1), ConditionGood, "unwanted replacement", "", uuid.New(), inWindow())
		require.NoError(t, err)
		assert.True(t, order.ReturnedQuantity(childID).Equal(decimal.NewFromInt(1)))
		assert.True(t, order.TotalReturnedValue().Equal(decimal.NewFromInt(150)))

		_, err = order.ResetItem(root.ID, uuid.New(), inWindow())
		require.NoError(t, err)

		// The child line is gone, but the derivation must still answer
		// zero for it: its entries were swept by the root reset.
		assert.Nil(t, order.GetLine(childID))
		assert.True(t, order.ReturnedQuantity(childID).IsZero())
		assert.True(t, order.TotalReturnedValue().IsZero())
	})

	t.Run("reset of one root leaves other roots untouched", func(t *testing.T) {
		order := createTestOrder(t)
		first := &order.Lines[0]
		second := &order.Lines[1]

		_, err := order.ReturnItem(first.ID, decimal.NewFromInt(2), ConditionGood, "unwanted", "", uuid.New(), inWindow())
		require.NoError(t, err)
		_, err = order.ReturnItem(second.ID, decimal.NewFromInt(1), ConditionGood, "unwanted", "", uuid.New(), inWindow())
		require.NoError(t, err)

		_, err = order.ResetItem(first.ID, uuid.New(), inWindow())
		require.NoError(t, err)

		assert.True(t, order.ReturnedQuantity(first.ID).IsZero())
		assert.True(t, order.ReturnedQuantity(second.ID).Equal(decimal.NewFromInt(1)))
		assert.True(t, order.TotalReturnedValue().Equal(decimal.NewFromInt(200)))
	})

	t.Run("mutations after a reset accumulate from zero", func(t *testing.T) {
		order := createTestOrder(t)
		root := &order.Lines[0]

		_, err := order.ReturnItem(root.ID, decimal.NewFromInt(5), ConditionGood, "unwanted", "", uuid.New(), inWindow())
		require.NoError(t, err)
		_, err = order.ResetItem(root.ID, uuid.New(), inWindow())
		require.NoError(t, err)
		_, err = order.ReturnItem(root.ID, decimal.NewFromInt(2), ConditionGood, "second thoughts", "", uuid.New(), inWindow())
		require.NoError(t, err)

		assert.True(t, order.ReturnedQuantity(root.ID).Equal(decimal.NewFromInt(2)))
		assert.True(t, order.TotalReturnedValue().Equal(decimal.NewFromInt(200)))
		assert.Empty(t, order.CheckConservation())
	})

	t.Run("reset all zeroes every derivation", func(t *testing.T) {
		order := createTestOrder(t)

		_, err := order.ReturnItem(order.Lines[0].ID, decimal.NewFromInt(3), ConditionGood, "unwanted", "", uuid.New(), inWindow())
		require.NoError(t, err)
		_, _, err = order.ReplaceItem(order.Lines[1].ID, decimal.NewFromInt(2), ConditionBad, "defective",
			ReplacementProduct{ID: uuid.New(), Name: "Gadget Pro", UnitPrice: decimal.NewFromInt(250)}, nil, uuid.New(), inWindow())
		require.NoError(t, err)

		_, err = order.ResetAll(uuid.New(), inWindow())
		require.NoError(t, err)

		assert.True(t, order.ReturnedQuantity(order.Lines[0].ID).IsZero())
		assert.True(t, order.ReplacedQuantity(order.Lines[1].ID).IsZero())
		assert.True(t, order.TotalReturnedValue().IsZero())
		assert.True(t, order.TotalReplacedValue().IsZero())
	})

	t.Run("trail survives resets as a chronological record", func(t *testing.T) {
		order := createTestOrder(t)
		root := &order.Lines[0]

		_, err := order.ReturnItem(root.ID, decimal.NewFromInt(3), ConditionGood, "unwanted", "", uuid.New(), inWindow())
		require.NoError(t, err)
		_, err = order.ResetItem(root.ID, uuid.New(), inWindow())
		require.NoError(t, err)

		require.Equal(t, 2, len(order.Entries))
		assert.Equal(t, EntryTypeReturn, order.Entries[0].Type)
		assert.Equal(t, EntryTypeResetItem, order.Entries[1].Type)
		assert.True(t, order.Entries[1].IsCompensating())
		for idx, entry := range order.Entries {
			assert.Equal(t, idx+1, entry.Seq)
		}
	})
}
