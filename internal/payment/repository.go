package payment

import (
	"context"
	"database/sql"

	"kirana-oms/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	SaveRecord(ctx context.Context, rec *Record) error
	RecordsForOrder(ctx context.Context, orderID string) ([]Record, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveRecord(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (
			id, order_id, gateway_order_id, gateway_payment_id,
			purpose, amount_minor, status, raw, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		rec.ID,
		rec.OrderID,
		rec.GatewayOrderID,
		rec.GatewayPaymentID,
		rec.Purpose,
		rec.AmountMinor,
		rec.Status,
		rec.Raw,
		rec.CreatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to save payment record",
			zap.String("order_id", rec.OrderID),
			zap.Error(err),
		)
	}
	return err
}

func (r *repository) RecordsForOrder(ctx context.Context, orderID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, gateway_order_id, gateway_payment_id,
		       purpose, amount_minor, status, raw, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.OrderID,
			&rec.GatewayOrderID,
			&rec.GatewayPaymentID,
			&rec.Purpose,
			&rec.AmountMinor,
			&rec.Status,
			&rec.Raw,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
