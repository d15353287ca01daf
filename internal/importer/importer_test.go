package importer

import (
	"context"
	"strings"
	"testing"

	"shopcore/internal/domain"
)

type recordingProductWriter struct {
	upserts []domain.Product
	err     error
}

func (w *recordingProductWriter) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.upserts = append(w.upserts, p)
	p.ID = "prod-" + p.SKU
	return &p, nil
}

type recordingCategoryWriter struct {
	upserts []domain.Category
}

func (w *recordingCategoryWriter) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	w.upserts = append(w.upserts, c)
	c.ID = "cat-" + c.Slug
	return &c, nil
}

const sampleCSV = `sku,name,description,price_cents,currency,category,stock,images
SKU-1,Blue Mug,A mug,1299,usd,Drinkware,10,https://cdn.example.com/mug.jpg
,,,,,,,https://cdn.example.com/mug-side.jpg
SKU-2,Red Shirt,A shirt,1999,USD,Apparel,5,
SKU-3,Plain Mug,,999,USD,Drinkware,3,
`

func TestRunImportsProducts(t *testing.T) {
	products := &recordingProductWriter{}
	categories := &recordingCategoryWriter{}
	imp := NewCSVImporter(strings.NewReader(sampleCSV), products, categories)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 3 {
		t.Fatalf("count: got %d, want 3", count)
	}

	mug := products.upserts[0]
	if mug.SKU != "SKU-1" || mug.Slug != "blue-mug" || mug.PriceCents != 1299 || mug.Currency != "USD" {
		t.Fatalf("mug: %+v", mug)
	}
	if len(mug.Images) != 2 {
		t.Fatalf("continuation row images not merged: %+v", mug.Images)
	}
	if mug.CategoryID == nil || *mug.CategoryID != "cat-drinkware" {
		t.Fatalf("category: %+v", mug.CategoryID)
	}

	// Drinkware appears twice but is upserted once.
	if len(categories.upserts) != 2 {
		t.Fatalf("category upserts: got %d, want 2 (drinkware, apparel)", len(categories.upserts))
	}
}

func TestRunRejectsInvalidRow(t *testing.T) {
	const bad = `sku,name,description,price_cents,currency,category,stock,images
SKU-1,,missing name,1299,USD,,1,
`
	imp := NewCSVImporter(strings.NewReader(bad), &recordingProductWriter{}, &recordingCategoryWriter{})

	if _, err := imp.Run(context.Background()); err == nil {
		t.Fatal("expected error for row without a name")
	}
}

func TestRunHandlesUnknownColumnsAndOrder(t *testing.T) {
	const shuffled = `name,sku,price_cents,currency,comment
Odd Widget,SKU-9,450,USD,ignored column
`
	products := &recordingProductWriter{}
	imp := NewCSVImporter(strings.NewReader(shuffled), products, &recordingCategoryWriter{})

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 1 || products.upserts[0].SKU != "SKU-9" {
		t.Fatalf("unexpected result: count=%d upserts=%+v", count, products.upserts)
	}
}
