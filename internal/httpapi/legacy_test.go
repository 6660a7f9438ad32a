package httpapi

import (
	"encoding/json"
	"testing"

	"github.com/safar/go-storefront/internal/checkout"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductInputParams(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		title    string
		quantity int
	}{
		{"canonical", `{"title":"Citrus Bloom","unit_price":"65.00","available_quantity":3}`, "Citrus Bloom", 3},
		{"legacy name and stock", `{"name":"Citrus Bloom","unit_price":65,"stock":4}`, "Citrus Bloom", 4},
		{"legacy inventory", `{"name":"Citrus Bloom","unit_price":65,"inventory":5}`, "Citrus Bloom", 5},
		{"canonical wins", `{"title":"New","name":"Old","unit_price":65,"available_quantity":1,"stock":9}`, "New", 1},
		{"missing quantity", `{"title":"Citrus Bloom","unit_price":65}`, "Citrus Bloom", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var in productInput
			require.NoError(t, json.Unmarshal([]byte(tc.body), &in))

			params, err := in.params()
			require.NoError(t, err)
			assert.Equal(t, tc.title, params.Title)
			assert.Equal(t, tc.quantity, params.AvailableQuantity)
			assert.True(t, params.UnitPrice.Equal(decimal.NewFromInt(65)))
		})
	}
}

func TestProductInputRequiresTitleAndPrice(t *testing.T) {
	var in productInput
	require.NoError(t, json.Unmarshal([]byte(`{"unit_price":1}`), &in))
	_, err := in.params()
	assert.ErrorIs(t, err, checkout.ErrInvalidRequest)

	in = productInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &in))
	_, err = in.params()
	assert.ErrorIs(t, err, checkout.ErrInvalidRequest)
}
