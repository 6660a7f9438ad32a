package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestItemsTotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, UnitPriceAtPurchase: decimal.RequireFromString("99.99")},
		{Quantity: 1, UnitPriceAtPurchase: decimal.RequireFromString("75.00")},
	}

	assert.True(t, decimal.RequireFromString("274.98").Equal(ItemsTotal(items)))
	assert.True(t, decimal.RequireFromString("199.98").Equal(items[0].Subtotal()))
	assert.True(t, ItemsTotal(nil).IsZero())
}
