package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id, size, color string, qty, stock int, price float64) Item {
	return Item{
		ProductID: id,
		Name:      "Phulkari " + id,
		Price:     price,
		Quantity:  qty,
		Size:      size,
		Color:     color,
		Stock:     stock,
	}
}

func TestMergeItemByCompositeIdentity(t *testing.T) {
	items := MergeItem(nil, line("p1", "M", "Red", 1, 10, 100))
	items = MergeItem(items, line("p1", "M", "Red", 2, 10, 100))

	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	// Same product in another size is its own line.
	items = MergeItem(items, line("p1", "L", "Red", 1, 10, 100))
	require.Len(t, items, 2)

	items = MergeItem(items, line("p1", "M", "Blue", 1, 10, 100))
	require.Len(t, items, 3)
}

func TestMergeItemClampsToStock(t *testing.T) {
	items := MergeItem(nil, line("p1", "M", "Red", 4, 5, 100))
	items = MergeItem(items, line("p1", "M", "Red", 4, 5, 100))

	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	// Unknown stock never clamps.
	items = MergeItem(nil, line("p2", "", "", 99, 0, 100))
	assert.Equal(t, 99, items[0].Quantity)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	items := MergeItem(nil, line("p1", "M", "Red", 2, 10, 100))
	items = MergeItem(items, line("p2", "S", "Blue", 1, 10, 50))

	items = SetQuantity(items, "p1", "M", "Red", 0)
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)

	items = SetQuantity(items, "p2", "S", "Blue", -3)
	assert.Empty(t, items)
}

func TestSetQuantityClampsToStock(t *testing.T) {
	items := MergeItem(nil, line("p1", "M", "Red", 1, 5, 100))
	items = SetQuantity(items, "p1", "M", "Red", 20)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestTotals(t *testing.T) {
	items := []Item{
		line("p1", "M", "Red", 2, 10, 1499),
		line("p2", "", "", 3, 10, 899),
	}
	count, total := Totals(items)
	assert.Equal(t, 5, count)
	assert.InDelta(t, 2*1499+3*899, total, 0.001)
}

func TestCartReplaceKeepsSurvivingRowIDs(t *testing.T) {
	cart := &Cart{UserID: "u1"}
	cart.Items = []CartItem{
		{ProductID: "p1", Size: "M", Color: "Red", Name: "Jutti", Price: 100, Quantity: 1, Stock: 5},
	}
	cart.Items[0].ID = 7

	items := MergeItem(cart.Snapshot(), line("p2", "", "", 1, 5, 50))
	cart.Replace(items)

	require.Len(t, cart.Items, 2)
	assert.EqualValues(t, 7, cart.Items[0].ID)
	assert.EqualValues(t, 0, cart.Items[1].ID)
}

func TestEventCodecRoundTrip(t *testing.T) {
	cases := []Event{
		CartUpdated{Items: []Item{line("p1", "M", "Red", 2, 5, 100)}, ItemCount: 2, Total: 200},
		CartError{Code: "insufficient-stock", Message: "requested quantity exceeds available stock"},
		AddToCart{Item: line("p2", "", "", 1, 3, 50)},
		UpdateCartItem{ProductID: "p1", Size: "M", Color: "Red", Quantity: 4},
		RemoveFromCart{ProductID: "p1", Size: "M", Color: "Red"},
		GetCart{},
		ClearCart{},
		AuthRequired{},
	}

	for _, ev := range cases {
		t.Run(ev.EventType(), func(t *testing.T) {
			raw, err := Encode("user-1", ev)
			require.NoError(t, err)

			userID, decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, ev, decoded)
		})
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, _, err := Decode([]byte(`{"type":"teleport-cart","userId":"u1"}`))
	assert.Error(t, err)
}
