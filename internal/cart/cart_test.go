package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int64, price string) Item {
	return Item{ProductID: id, Name: "Torta", Price: decimal.RequireFromString(price)}
}

func TestAddItemMergesSameProduct(t *testing.T) {
	c := New(nil)
	c.AddItem(item(1, "85.00"), 2)
	c.AddItem(item(1, "85.00"), 3)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, c.Count())
	assert.True(t, c.Total().Equal(decimal.RequireFromString("425.00")))
}

func TestAddItemClampsQuantityToOne(t *testing.T) {
	c := New(nil)
	c.AddItem(item(1, "10"), 0)
	c.AddItem(item(2, "10"), -4)
	assert.Equal(t, 2, c.Count())
}

func TestRemoveItemDropsWholeLine(t *testing.T) {
	c := New(nil)
	c.AddItem(item(1, "85.00"), 3)
	c.AddItem(item(2, "65.00"), 1)

	c.RemoveItem(1)
	items := c.Items()
	require.Len(t, items, 1)
	assert.EqualValues(t, 2, items[0].ProductID)
	assert.Equal(t, 1, c.Count())

	c.RemoveItem(99)
	assert.Len(t, c.Items(), 1)
}

func TestClearEmptiesCart(t *testing.T) {
	c := New([]Item{{ProductID: 1, Price: decimal.NewFromInt(5), Quantity: 2}})
	c.Clear()
	assert.Empty(t, c.Items())
	assert.Zero(t, c.Count())
	assert.True(t, c.Total().IsZero())
}

func TestDerivedValuesFollowMutations(t *testing.T) {
	c := New(nil)
	c.AddItem(item(1, "12.50"), 2)
	c.AddItem(item(2, "0.99"), 3)
	snap := c.Snapshot()
	assert.Equal(t, 5, snap.Count)
	assert.Equal(t, "27.97", snap.Total.StringFixed(2))

	c.RemoveItem(2)
	assert.Equal(t, "25.00", c.Total().StringFixed(2))
}

func TestNewMergesDuplicatePersistedLines(t *testing.T) {
	c := New([]Item{
		{ProductID: 1, Price: decimal.NewFromInt(10), Quantity: 1},
		{ProductID: 1, Price: decimal.NewFromInt(10), Quantity: 2},
	})
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 3, c.Count())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New(nil)
	c.AddItem(item(1, "1"), 1)
	items := c.Items()
	items[0].Quantity = 100
	assert.Equal(t, 1, c.Count())
}
