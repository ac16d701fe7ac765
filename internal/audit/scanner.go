package audit

import (
	"context"
	"database/sql"
	"time"

	"kirana-oms/internal/logger"

	"go.uber.org/zap"
)

// Finding is one order line whose ledger deductions exceed what was ordered.
// The duplicate guard should make these impossible; the scanner exists to
// prove that in production data, not to repair it.
type Finding struct {
	OrderID     string
	ProductID   string
	VariantID   string
	OrderedQty  int64
	DeductedQty int64
}

// OverDeducted reports whether the line's total sale deductions exceed the
// ordered quantity. Both sides are stored positive in the ledger.
func (f Finding) OverDeducted() bool {
	return f.DeductedQty > f.OrderedQty
}

type Scanner struct {
	db *sql.DB
}

func NewScanner(db *sql.DB) *Scanner {
	return &Scanner{db: db}
}

// Scan totals, per order line, the sale quantity in the ledger over movements
// created since the given time, and reports the lines where that total
// exceeds the ordered quantity. Report-only: nothing is written.
func (s *Scanner) Scan(ctx context.Context, since time.Time) ([]Finding, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "audit"),
		zap.Time("since", since),
	)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.order_id,
		       m.product_id,
		       COALESCE(m.variant_id, ''),
		       COALESCE(MAX(i.quantity), 0) AS ordered_qty,
		       SUM(m.quantity) AS deducted_qty
		FROM inventory_movements m
		LEFT JOIN order_items i
		  ON i.order_id = m.order_id
		 AND i.product_id = m.product_id
		 AND COALESCE(i.variant_id, '') = COALESCE(m.variant_id, '')
		WHERE m.type = 'sale'
		  AND m.order_id IS NOT NULL
		  AND m.created_at >= $1
		GROUP BY m.order_id, m.product_id, COALESCE(m.variant_id, '')
		ORDER BY m.order_id
	`, since)
	if err != nil {
		log.Error("over-deduction scan query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.OrderID, &f.ProductID, &f.VariantID, &f.OrderedQty, &f.DeductedQty); err != nil {
			return nil, err
		}
		if !f.OverDeducted() {
			continue
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, f := range findings {
		log.Warn("over-deduction detected",
			zap.String("order_id", f.OrderID),
			zap.String("product_id", f.ProductID),
			zap.String("variant_id", f.VariantID),
			zap.Int64("ordered_qty", f.OrderedQty),
			zap.Int64("deducted_qty", f.DeductedQty),
		)
	}

	log.Info("over-deduction scan complete", zap.Int("findings", len(findings)))

	return findings, nil
}
