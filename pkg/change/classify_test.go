package change_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/change"
)

func TestClassify_Inventory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		oldValue float64
		newValue float64
		want     change.InventoryStatus
	}{
		{name: "zero to fifteen becomes available", oldValue: 0, newValue: 15, want: change.BecameAvailable},
		{name: "zero to three becomes available not running low", oldValue: 0, newValue: 3, want: change.BecameAvailable},
		{name: "twelve to three is running low", oldValue: 12, newValue: 3, want: change.RunningLow},
		{name: "three to zero sold out", oldValue: 3, newValue: 0, want: change.SoldOut},
		{name: "five to twenty restocked", oldValue: 5, newValue: 20, want: change.Restocked},
		{name: "five to eight generic update", oldValue: 5, newValue: 8, want: change.InventoryUpdated},
		{name: "running low boundary", oldValue: 9, newValue: 5, want: change.RunningLow},
		{name: "just above running low", oldValue: 9, newValue: 6, want: change.InventoryUpdated},
		{name: "restock boundary", oldValue: 10, newValue: 20, want: change.Restocked},
		{name: "decrease above threshold", oldValue: 40, newValue: 30, want: change.InventoryUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := change.Classify(change.AttributeInventory, tt.oldValue, tt.newValue)
			inv, ok := got.(change.InventoryChange)
			require.True(t, ok, "expected InventoryChange, got %T", got)
			assert.Equal(t, tt.want, inv.Status)
			assert.Equal(t, tt.oldValue, inv.OldCount)
			assert.Equal(t, tt.newValue, inv.NewCount)
			assert.Equal(t, change.AttributeInventory, inv.Attribute())
		})
	}
}

func TestClassify_InventoryProperties(t *testing.T) {
	t.Parallel()

	t.Run("any positive value from zero is available", func(t *testing.T) {
		t.Parallel()
		for _, n := range []float64{1, 2, 5, 6, 10, 11, 100, 12345} {
			got := change.Classify(change.AttributeInventory, 0, n).(change.InventoryChange)
			assert.Equal(t, change.BecameAvailable, got.Status, "new value %v", n)
		}
	})

	t.Run("any positive value to zero is sold out", func(t *testing.T) {
		t.Parallel()
		for _, n := range []float64{1, 3, 5, 10, 999} {
			got := change.Classify(change.AttributeInventory, n, 0).(change.InventoryChange)
			assert.Equal(t, change.SoldOut, got.Status, "old value %v", n)
		}
	})
}

func TestClassify_Price(t *testing.T) {
	t.Parallel()

	t.Run("decrease", func(t *testing.T) {
		t.Parallel()

		got := change.Classify(change.AttributePrice, 50, 45)
		price, ok := got.(change.PriceChange)
		require.True(t, ok)
		assert.InDelta(t, -5.0, price.Difference, 1e-9)
		require.NotNil(t, price.PercentChange)
		assert.InDelta(t, -10.0, *price.PercentChange, 1e-9)
		assert.True(t, price.IsDecrease)
		assert.Equal(t, "price_changed", price.Kind())
	})

	t.Run("increase", func(t *testing.T) {
		t.Parallel()

		price := change.Classify(change.AttributePrice, 40, 50).(change.PriceChange)
		assert.InDelta(t, 10.0, price.Difference, 1e-9)
		require.NotNil(t, price.PercentChange)
		assert.InDelta(t, 25.0, *price.PercentChange, 1e-9)
		assert.False(t, price.IsDecrease)
	})

	t.Run("from zero has no percentage", func(t *testing.T) {
		t.Parallel()

		price := change.Classify(change.AttributePrice, 0, 30).(change.PriceChange)
		assert.Nil(t, price.PercentChange)
		assert.InDelta(t, 30.0, price.Difference, 1e-9)
	})
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	for _, attr := range []change.Attribute{change.AttributeInventory, change.AttributePrice} {
		first := change.Classify(attr, 12, 3)
		second := change.Classify(attr, 12, 3)
		assert.Equal(t, first, second)
	}
}
