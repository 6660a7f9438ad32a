package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImageURL is stored for products created without an image.
const PlaceholderImageURL = "https://placehold.co/400x400/F9F5F2/332C2C?text=No+Image"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	Slug              string          `json:"slug"`
	Description       string          `json:"description,omitempty"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	AvailableQuantity int             `json:"available_quantity"`
	CategoryID        *int64          `json:"category_id,omitempty"`
	CategorySlug      string          `json:"category_slug,omitempty"`
	ImageURL          string          `json:"image_url"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// Order is never updated after creation except for Shipped.
type Order struct {
	ID           int64           `json:"id"`
	UserID       *int64          `json:"user_id,omitempty"`
	ContactEmail string          `json:"contact_email"`
	Shipped      bool            `json:"shipped"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []OrderItem     `json:"items,omitempty"`
	Total        decimal.Decimal `json:"total"`
}

// OrderItem keeps the price paid; it does not follow later product price changes.
// ProductID becomes nil when the product is deleted.
type OrderItem struct {
	ID                  int64           `json:"id"`
	OrderID             int64           `json:"order_id"`
	ProductID           *int64          `json:"product_id,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPriceAtPurchase decimal.Decimal `json:"unit_price_at_purchase"`
	CreatedAt           time.Time       `json:"created_at"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums quantity times purchase price over items.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
