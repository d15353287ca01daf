package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"shopcore/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates categories and
// products.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter

	// slug -> category id, so repeated rows don't re-upsert the category.
	seenCategories map[string]string
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:         csvr,
		products:       products,
		categories:     categories,
		seenCategories: make(map[string]string),
	}
}

type csvRow struct {
	SKU       string
	Name      string
	Desc      string
	Cents     int64
	Currency  string
	Category  string
	Stock     int
	ImageURLs []string
}

// Run parses CSV rows and upserts products grouped by SKU. Rows with an
// empty sku column continue the previous product and contribute images.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}

		if row.SKU != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Name == "" || row.Cents <= 0 || row.Currency == "" {
		return fmt.Errorf("invalid product row (missing required fields) for sku %q", row.SKU)
	}

	var categoryID *string
	if row.Category != "" {
		id, err := i.ensureCategory(ctx, row.Category)
		if err != nil {
			return fmt.Errorf("ensure category %q: %w", row.Category, err)
		}
		categoryID = &id
	}

	p := domain.Product{
		SKU:         row.SKU,
		Slug:        slugify(row.Name),
		Name:        row.Name,
		Description: row.Desc,
		PriceCents:  row.Cents,
		Currency:    strings.ToUpper(row.Currency),
		CategoryID:  categoryID,
		Images:      row.ImageURLs,
		Stock:       row.Stock,
		IsActive:    true,
	}

	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.SKU, err)
	}
	return nil
}

func (i *CSVImporter) ensureCategory(ctx context.Context, name string) (string, error) {
	slug := slugify(name)
	if id, ok := i.seenCategories[slug]; ok {
		return id, nil
	}
	cat, err := i.categories.Upsert(ctx, domain.Category{Slug: slug, Name: name})
	if err != nil {
		return "", err
	}
	i.seenCategories[slug] = cat.ID
	return cat.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	sku := pick(record, index, "sku")
	name := pick(record, index, "name")
	desc := pick(record, index, "description")
	centStr := pick(record, index, "price_cents")
	currency := pick(record, index, "currency")
	category := pick(record, index, "category")
	stockStr := pick(record, index, "stock")
	images := pick(record, index, "images")

	if sku == "" && images == "" {
		return nil
	}

	var cents int64
	if centStr != "" {
		cents, _ = strconv.ParseInt(centStr, 10, 64)
	}
	var stock int
	if stockStr != "" {
		stock, _ = strconv.Atoi(stockStr)
	}

	row := &csvRow{
		SKU:      sku,
		Name:     name,
		Desc:     desc,
		Cents:    cents,
		Currency: currency,
		Category: category,
		Stock:    stock,
	}
	for _, u := range strings.Split(images, ";") {
		if u = strings.TrimSpace(u); u != "" {
			row.ImageURLs = append(row.ImageURLs, u)
		}
	}
	return row
}

func pick(record []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
