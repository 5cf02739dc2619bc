package receipt

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

func testOrder() model.Order {
	return model.Order{
		Number: 3,
		Status: model.OrderStatusPlaced,
		Lines: []model.OrderLine{
			{ProductID: 1, QuantityOrdered: 60, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: 2, QuantityOrdered: 60, UnitPrice: decimal.RequireFromString("12.50")},
		},
	}
}

func TestEncode_AcceptedByDecode(t *testing.T) {
	data, err := Encode(testOrder())
	require.NoError(t, err)

	r, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, int64(3), r.OrderNumber)
	require.Len(t, r.Lines, 2)
	for i, l := range r.Lines {
		want := testOrder().Lines[i]
		assert.Equal(t, want.ProductID, l.ProductID)
		assert.Equal(t, want.QuantityOrdered, l.QuantityOrdered)
		assert.Equal(t, want.QuantityOrdered, l.QuantityReceived)
		assert.True(t, want.UnitPrice.Equal(l.UnitPrice), "price %s, want %s", l.UnitPrice, want.UnitPrice)
	}
}

func TestEncode_PricesAreNumbers(t *testing.T) {
	data, err := Encode(testOrder())
	require.NoError(t, err)

	assert.Contains(t, string(data), `"productPrice":12.5`)
	assert.NotContains(t, string(data), `"productPrice":"`)
}

func TestQRCode_IsPNG(t *testing.T) {
	data, err := QRCode(testOrder(), 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, img.Bounds().Dx())
	assert.Equal(t, DefaultQRSize, img.Bounds().Dy())
}
