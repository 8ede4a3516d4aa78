package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	items := []OrderItem{
		{ProductID: "sku-1", Quantity: 2, UnitPrice: 1500, Currency: "EUR"},
		{ProductID: "sku-2", Quantity: 1, UnitPrice: 4999, Currency: "EUR"},
	}
	order, err := NewOrder("o-1", "buyer@example.com", items)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, int64(2*1500+4999), order.Total)
	assert.False(t, order.CreatedAt.IsZero())
}

func TestNewOrderRejectsEmptyFields(t *testing.T) {
	_, err := NewOrder("", "buyer@example.com", []OrderItem{{ProductID: "sku-1", Quantity: 1}})
	assert.Error(t, err)

	_, err = NewOrder("o-1", "", []OrderItem{{ProductID: "sku-1", Quantity: 1}})
	assert.Error(t, err)

	_, err = NewOrder("o-1", "buyer@example.com", nil)
	assert.Error(t, err)
}

func TestStatusEnum(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid())
	}
	assert.False(t, Status("archived").IsValid())

	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.True(t, StatusReturned.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusFulfilled.IsTerminal())
}
