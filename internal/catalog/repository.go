package catalog

import (
	"context"
	"database/sql"
	"errors"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/logger"

	"go.uber.org/zap"
)

// Repository is the read side of the catalog. The catalog CRUD itself is
// owned elsewhere; the order engine only snapshots prices and stock from it.
type Repository interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	GetVariant(ctx context.Context, productID, variantID string) (*Variant, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	query := `
		SELECT id, name, sku, price_minor, stock, uses_variant_stock
		FROM products
		WHERE id = $1
	`

	var p Product
	err := r.db.QueryRowContext(ctx, query, productID).
		Scan(&p.ID, &p.Name, &p.SKU, &p.PriceMinor, &p.Stock, &p.UsesVariantStock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "product not found")
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query product",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, sku, price_minor, stock
		FROM variants
		WHERE product_id = $1
	`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.PriceMinor, &v.Stock); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) GetVariant(ctx context.Context, productID, variantID string) (*Variant, error) {
	query := `
		SELECT id, product_id, name, sku, price_minor, stock
		FROM variants
		WHERE id = $1 AND product_id = $2
	`

	var v Variant
	err := r.db.QueryRowContext(ctx, query, variantID, productID).
		Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.PriceMinor, &v.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "variant not found")
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query variant",
			zap.String("variant_id", variantID),
			zap.Error(err),
		)
		return nil, err
	}

	return &v, nil
}
