package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id::text, business_id::text, name, description, mrp, sale_price,
	discount_percentage, COALESCE(bulk_pricing, '[]'::jsonb), COALESCE(sizes, '{}'),
	COALESCE(colors, '{}'), COALESCE(image_url, ''),
	COALESCE(category, ''), product_type, is_available, created_at`

// Store persists products in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var bulk []byte
	err := row.Scan(&p.ID, &p.BusinessID, &p.Name, &p.Description, &p.MRP, &p.SalePrice,
		&p.DiscountPercentage, &bulk, &p.Sizes, &p.Colors, &p.ImageURL, &p.Category,
		&p.ProductType, &p.IsAvailable, &p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	p.BulkPricing = []BulkTier{}
	if len(bulk) > 0 {
		if err := json.Unmarshal(bulk, &p.BulkPricing); err != nil {
			return Product{}, fmt.Errorf("decode bulk_pricing: %w", err)
		}
	}
	return p, nil
}

// Create inserts a product and returns the stored row.
func (s *Store) Create(ctx context.Context, p Product) (Product, error) {
	bulk, err := json.Marshal(p.BulkPricing)
	if err != nil {
		return Product{}, fmt.Errorf("encode bulk_pricing: %w", err)
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO products (business_id, name, description, mrp, sale_price,
			discount_percentage, bulk_pricing, sizes, colors, image_url, category,
			product_type, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12, $13)
		RETURNING `+productColumns,
		p.BusinessID, p.Name, p.Description, p.MRP, p.SalePrice,
		p.DiscountPercentage, bulk, p.Sizes, p.Colors, p.ImageURL, p.Category,
		p.ProductType, p.IsAvailable)
	return scanProduct(row)
}

// ListByBusiness returns every product of a business, newest first.
func (s *Store) ListByBusiness(ctx context.Context, businessID string) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE business_id = $1
		ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetForBusiness fetches one product scoped to a business.
func (s *Store) GetForBusiness(ctx context.Context, id, businessID string) (Product, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND business_id = $2`, id, businessID)
	return scanProduct(row)
}

// Update rewrites the mutable columns of a product.
func (s *Store) Update(ctx context.Context, p Product) (Product, error) {
	bulk, err := json.Marshal(p.BulkPricing)
	if err != nil {
		return Product{}, fmt.Errorf("encode bulk_pricing: %w", err)
	}
	row := s.Pool.QueryRow(ctx, `
		UPDATE products
		SET name = $1, description = $2, mrp = $3, sale_price = $4,
			discount_percentage = $5, bulk_pricing = $6, sizes = $7, colors = $8,
			image_url = NULLIF($9, ''), category = NULLIF($10, ''),
			product_type = $11, is_available = $12
		WHERE id = $13 AND business_id = $14
		RETURNING `+productColumns,
		p.Name, p.Description, p.MRP, p.SalePrice,
		p.DiscountPercentage, bulk, p.Sizes, p.Colors, p.ImageURL, p.Category,
		p.ProductType, p.IsAvailable, p.ID, p.BusinessID)
	return scanProduct(row)
}

// Delete removes a product scoped to a business.
func (s *Store) Delete(ctx context.Context, id, businessID string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
