// Seeder loads a starter catalog so a fresh install has products to bill
// against. Safe to re-run: products are matched by SKU and skipped when
// already present.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/catalog"
	"github.com/noah-isme/backend-billing/internal/repo"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	products := repo.ProductsRepo{DB: pool}
	seeded := 0
	for _, p := range starterCatalog() {
		var exists bool
		err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`, p.SKU).Scan(&exists)
		if err != nil {
			log.Fatalf("Failed to check sku %s: %v", p.SKU, err)
		}
		if exists {
			continue
		}
		if _, err := products.Insert(ctx, p); err != nil {
			log.Fatalf("Failed to insert %s: %v", p.SKU, err)
		}
		seeded++
	}
	log.Printf("Seed complete: %d products inserted", seeded)
}

// starterCatalog covers the pricing space: plain piece pricing, compound
// units priced per pack and per piece, and each CESS variant.
func starterCatalog() []catalog.Product {
	d := decimal.RequireFromString
	return []catalog.Product{
		{
			Name: "Mineral Water 1L", SKU: "WTR-1L", HSNCode: "2201",
			PrimaryUnit: "Box", SecondaryUnit: "Bottle",
			UseCompoundUnit: true, ConversionRatio: d("24"),
			PriceUnit: "primary", UnitPrice: d("240"),
			TaxRate: d("18"), CessKind: "none",
			Stock: d("480"),
		},
		{
			Name: "Basmati Rice 5kg", SKU: "RICE-5KG", HSNCode: "1006",
			PrimaryUnit: "Bag",
			PriceUnit:   "primary", UnitPrice: d("550"),
			TaxRate: d("5"), CessKind: "none",
			Stock: d("60"),
		},
		{
			Name: "Bath Soap 100g", SKU: "SOAP-100", HSNCode: "3401",
			PrimaryUnit: "Dozen", SecondaryUnit: "Piece",
			UseCompoundUnit: true, ConversionRatio: d("12"),
			PriceUnit: "secondary", UnitPrice: d("42"),
			TaxRate: d("18"), CessKind: "none",
			Stock: d("240"),
		},
		{
			Name: "Aerated Drink 500ml", SKU: "COLA-500", HSNCode: "2202",
			PrimaryUnit: "Crate", SecondaryUnit: "Bottle",
			UseCompoundUnit: true, ConversionRatio: d("20"),
			PriceUnit: "secondary", UnitPrice: d("40"),
			TaxRate: d("28"), CessKind: "value", CessRate: d("12"),
			Stock: d("200"),
		},
		{
			Name: "Filter Cigarettes 20s", SKU: "CIG-20", HSNCode: "2402",
			PrimaryUnit: "Carton", SecondaryUnit: "Pack",
			UseCompoundUnit: true, ConversionRatio: d("10"),
			PriceUnit: "secondary", UnitPrice: d("340"),
			TaxRate: d("28"), CessKind: "value_and_quantity",
			CessRate: d("5"), CessPerUnit: d("4.17"),
			Stock: d("100"),
		},
		{
			Name: "Notebook A5 200pg", SKU: "NB-A5-200", HSNCode: "4820",
			PrimaryUnit: "Piece",
			PriceUnit:   "primary", UnitPrice: d("85"),
			TaxRate: d("12"), CessKind: "none",
			Stock: d("150"),
		},
		{
			Name: "Coal Briquettes 25kg", SKU: "COAL-25", HSNCode: "2701",
			PrimaryUnit: "Sack",
			PriceUnit:   "primary", UnitPrice: d("900"),
			TaxRate: d("5"), CessKind: "quantity", CessPerUnit: d("10"),
			Stock: d("80"),
		},
	}
}
