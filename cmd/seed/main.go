package main

import (
	"context"
	"log"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/observability"
	"github.com/safar/go-storefront/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const initialStock = 25

var categories = []string{"Floral", "Woody", "Fresh", "Oriental"}

var products = []store.SeedProduct{
	{
		Title:       "Rose Serenity",
		UnitPrice:   decimal.NewFromInt(75),
		Description: "A romantic fragrance with rose petals, peony and a touch of white musk.",
		Category:    "Floral",
		ImageURL:    "https://placehold.co/400x400/F9F5F2/332C2C?text=Rose+Serenity",
	},
	{
		Title:       "Sandalwood Dusk",
		UnitPrice:   decimal.NewFromInt(85),
		Description: "Smooth sandalwood layered with warm amber and creamy tonka.",
		Category:    "Woody",
		ImageURL:    "https://placehold.co/400x400/F9F5F2/332C2C?text=Sandalwood+Dusk",
	},
	{
		Title:       "Citrus Bloom",
		UnitPrice:   decimal.NewFromInt(65),
		Description: "Bright citrus notes with neroli and bergamot for a fresh, lively scent.",
		Category:    "Fresh",
		ImageURL:    "https://placehold.co/400x400/F9F5F2/332C2C?text=Citrus+Bloom",
	},
	{
		Title:       "Midnight Oud",
		UnitPrice:   decimal.NewFromInt(95),
		Description: "Rich oud, smoky vetiver and dark vanilla for a mysterious allure.",
		Category:    "Oriental",
		ImageURL:    "https://placehold.co/400x400/F9F5F2/332C2C?text=Midnight+Oud",
	},
	{
		Title:       "Vanilla Dream",
		UnitPrice:   decimal.NewFromInt(70),
		Description: "Soft vanilla and jasmine blend for a cozy, comforting fragrance.",
		Category:    "Oriental",
		ImageURL:    "https://placehold.co/400x400/F9F5F2/332C2C?text=Vanilla+Dream",
	},
	{
		Title:       "Aqua Marine",
		UnitPrice:   decimal.NewFromInt(60),
		Description: "Clean ocean breeze and lemon zest with hints of cedarwood.",
		Category:    "Fresh",
		ImageURL:    "https://placehold.co/400x400/F9F5F2/332C2C?text=Aqua+Marine",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log, "storefront-seed")
	if err != nil {
		log.Fatalf("Create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	for i := range products {
		products[i].AvailableQuantity = initialStock
	}

	result, err := store.SeedCatalog(ctx, db, categories, products)
	if err != nil {
		logger.Fatal("seed catalog", zap.Error(err))
	}

	logger.Info("sample fragrance data seeded",
		zap.Int("categories_created", result.CategoriesCreated),
		zap.Int("products_created", result.ProductsCreated),
	)
}
