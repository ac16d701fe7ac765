package inventory

import (
	"context"
	"database/sql"
	"errors"

	"kirana-oms/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const saleUniqueConstraint = "inventory_movements_sale_unique"

type Repository interface {
	// Apply writes the movement and the updated cached stock value in one
	// transaction. The movement's Balance is filled in from the update.
	Apply(ctx context.Context, m *Movement, allowNegative bool) error
	HasSale(ctx context.Context, productID string, variantID *string, orderID string) (bool, error)
	InsertDiagnostic(ctx context.Context, m *Movement) error
	List(ctx context.Context, productID string, variantID *string) ([]Movement, error)
	SalesForOrder(ctx context.Context, orderID string) ([]Movement, error)
	ReplayBalance(ctx context.Context, productID string, variantID *string) (int64, error)
	SetStock(ctx context.Context, productID string, variantID *string, balance int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Apply(ctx context.Context, m *Movement, allowNegative bool) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Apply"),
		zap.String("product_id", m.ProductID),
		zap.String("type", string(m.Type)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// 1. Conditional stock update. The "stock + delta >= 0" predicate is the
	// oversell guard: concurrent decrements of the last unit cannot both pass.
	delta := m.Type.SignedEffect(m.Quantity)

	var balance int64
	if m.VariantID != nil {
		err = tx.QueryRowContext(ctx, `
			UPDATE variants
			SET stock = stock + $1
			WHERE id = $2 AND ($3 OR stock + $1 >= 0)
			RETURNING stock
		`, delta, *m.VariantID, allowNegative).Scan(&balance)
	} else {
		err = tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock + $1, updated_at = NOW()
			WHERE id = $2 AND ($3 OR stock + $1 >= 0)
			RETURNING stock
		`, delta, m.ProductID, allowNegative).Scan(&balance)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return r.classifyNoRows(ctx, tx, m)
	}
	if err != nil {
		log.Error("failed to update stock", zap.Error(err))
		return err
	}

	m.Balance = balance

	// 2. Append the ledger entry. The partial unique index on sale movements
	// closes the race an application-level pre-check cannot.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (
			id, product_id, variant_id, type, quantity,
			balance, order_id, actor_id, note, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		m.ID,
		m.ProductID,
		m.VariantID,
		m.Type,
		m.Quantity,
		m.Balance,
		m.OrderID,
		m.ActorID,
		m.Note,
		m.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == saleUniqueConstraint {
			return ErrDuplicateSale
		}
		log.Error("failed to insert movement", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit movement transaction", zap.Error(err))
		return err
	}

	committed = true
	return nil
}

// classifyNoRows distinguishes a missing product/variant from a stock level
// that the conditional update refused to drive below zero.
func (r *repository) classifyNoRows(ctx context.Context, tx *sql.Tx, m *Movement) error {
	var exists bool
	var err error
	if m.VariantID != nil {
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM variants WHERE id = $1)`, *m.VariantID).Scan(&exists)
	} else {
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, m.ProductID).Scan(&exists)
	}
	if err != nil {
		return err
	}
	if !exists {
		if m.VariantID != nil {
			return ErrVariantNotFound
		}
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

func (r *repository) HasSale(ctx context.Context, productID string, variantID *string, orderID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM inventory_movements
			WHERE product_id = $1
			  AND COALESCE(variant_id, '') = COALESCE($2, '')
			  AND order_id = $3
			  AND type = 'sale'
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, productID, variantID, orderID).Scan(&exists)
	return exists, err
}

func (r *repository) InsertDiagnostic(ctx context.Context, m *Movement) error {
	// Snapshot the current balance so the diagnostic row still satisfies the
	// "balance after applying this entry" reading of the ledger.
	var balance int64
	var err error
	if m.VariantID != nil {
		err = r.db.QueryRowContext(ctx,
			`SELECT stock FROM variants WHERE id = $1`, *m.VariantID).Scan(&balance)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT stock FROM products WHERE id = $1`, m.ProductID).Scan(&balance)
	}
	if err != nil {
		return err
	}

	m.Balance = balance

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO inventory_movements (
			id, product_id, variant_id, type, quantity,
			balance, order_id, actor_id, note, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		m.ID,
		m.ProductID,
		m.VariantID,
		m.Type,
		m.Quantity,
		m.Balance,
		m.OrderID,
		m.ActorID,
		m.Note,
		m.CreatedAt,
	)
	return err
}

func (r *repository) List(ctx context.Context, productID string, variantID *string) ([]Movement, error) {
	query := `
		SELECT id, product_id, variant_id, type, quantity,
		       balance, order_id, actor_id, note, created_at
		FROM inventory_movements
		WHERE product_id = $1
		  AND COALESCE(variant_id, '') = COALESCE($2, '')
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

func (r *repository) SalesForOrder(ctx context.Context, orderID string) ([]Movement, error) {
	query := `
		SELECT id, product_id, variant_id, type, quantity,
		       balance, order_id, actor_id, note, created_at
		FROM inventory_movements
		WHERE order_id = $1 AND type = 'sale'
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

func (r *repository) ReplayBalance(ctx context.Context, productID string, variantID *string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN type IN ('add', 'refund') THEN quantity ELSE -quantity END
		), 0)
		FROM inventory_movements
		WHERE product_id = $1
		  AND COALESCE(variant_id, '') = COALESCE($2, '')
	`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, productID, variantID).Scan(&balance)
	return balance, err
}

func (r *repository) SetStock(ctx context.Context, productID string, variantID *string, balance int64) error {
	var res sql.Result
	var err error
	if variantID != nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE variants SET stock = $1 WHERE id = $2`, balance, *variantID)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`, balance, productID)
	}
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		if variantID != nil {
			return ErrVariantNotFound
		}
		return ErrProductNotFound
	}
	return nil
}

func scanMovements(rows *sql.Rows) ([]Movement, error) {
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.VariantID,
			&m.Type,
			&m.Quantity,
			&m.Balance,
			&m.OrderID,
			&m.ActorID,
			&m.Note,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
