package httpapi

import (
	"fmt"

	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/store"
	"github.com/shopspring/decimal"
)

// productInput accepts the canonical product fields and the names older
// clients still send: name for title, stock or inventory for
// available_quantity. Canonical fields win when both are present.
type productInput struct {
	Title             *string          `json:"title"`
	Slug              string           `json:"slug"`
	Description       string           `json:"description"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	AvailableQuantity *int             `json:"available_quantity"`
	CategoryID        *int64           `json:"category_id"`
	ImageURL          string           `json:"image_url"`

	Name      *string `json:"name"`
	Stock     *int    `json:"stock"`
	Inventory *int    `json:"inventory"`
}

func (in productInput) params() (store.CreateProductParams, error) {
	title := firstString(in.Title, in.Name)
	if title == "" {
		return store.CreateProductParams{}, fmt.Errorf("%w: title is required", checkout.ErrInvalidRequest)
	}
	if in.UnitPrice == nil {
		return store.CreateProductParams{}, fmt.Errorf("%w: unit_price is required", checkout.ErrInvalidRequest)
	}

	return store.CreateProductParams{
		Title:             title,
		Slug:              in.Slug,
		Description:       in.Description,
		UnitPrice:         *in.UnitPrice,
		AvailableQuantity: firstInt(in.AvailableQuantity, in.Inventory, in.Stock),
		CategoryID:        in.CategoryID,
		ImageURL:          in.ImageURL,
	}, nil
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
