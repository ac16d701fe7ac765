package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kirana-oms/internal/logger"
	"kirana-oms/internal/outbox"
	"kirana-oms/internal/payment"

	"go.uber.org/zap"
)

const orderColumns = `
	id, status, payment_status, payment_method, currency, total_minor,
	token_minor, remaining_cod_minor, token_payment_status,
	gateway_order_id, gateway_payment_id, gateway_signature,
	token_payment_id, token_signature, courier_name, tracking_url,
	recipient_name, phone, email, address_line1, address_line2,
	city, state, postal_code, country, paid_at, created_at, updated_at`

// ConfirmUpdate carries the state written by a payment-confirmed transition.
type ConfirmUpdate struct {
	OrderID   string
	Purpose   payment.Purpose
	PaymentID string
	Signature *string
	PaidAt    *time.Time
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderID string) (*Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)

	// ConfirmPaymentTx applies the payment-confirmed transition and enqueues
	// its outbox rows in one transaction. The conditional update makes
	// redelivered callbacks no-ops: it returns false when another caller
	// already confirmed, or when the order has left the awaiting-payment
	// states entirely.
	ConfirmPaymentTx(ctx context.Context, upd ConfirmUpdate, msgs []outbox.Message) (bool, error)

	// UpdateStatusTx moves status from->to guarded by the current status,
	// so concurrent transitions race for exactly one winner.
	UpdateStatusTx(ctx context.Context, orderID string, from, to OrderStatus, courier, tracking *string, msgs []outbox.Message) (bool, error)

	// FailPaymentTx marks the payment failed or refunded and the order
	// failed, guarded on payment_status still being pending and the order
	// still awaiting payment.
	FailPaymentTx(ctx context.Context, orderID string, ps PaymentStatus, msgs []outbox.Message) (bool, error)

	ListPendingPayments(ctx context.Context, olderThan time.Time) ([]*Order, error)
	ListActive(ctx context.Context) ([]*Order, error)

	HardDelete(ctx context.Context, orderID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("order_id", o.ID),
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, status, payment_status, payment_method, currency, total_minor,
			token_minor, remaining_cod_minor, token_payment_status,
			gateway_order_id, recipient_name, phone, email,
			address_line1, address_line2, city, state, postal_code, country,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$20)
	`,
		o.ID,
		o.Status,
		o.PaymentStatus,
		o.Method,
		o.Currency,
		o.TotalMinor,
		o.TokenMinor,
		o.RemainingCODMinor,
		o.TokenStatus,
		o.GatewayOrderID,
		o.Address.RecipientName,
		o.Address.Phone,
		o.Address.Email,
		o.Address.Line1,
		o.Address.Line2,
		o.Address.City,
		o.Address.State,
		o.Address.PostalCode,
		o.Address.Country,
		o.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, variant_id, product_name,
				quantity, unit_price_minor, line_total_minor
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			item.ID,
			o.ID,
			item.ProductID,
			item.VariantID,
			item.ProductName,
			item.Quantity,
			item.UnitPriceMinor,
			item.LineTotalMinor,
		)
		if err != nil {
			log.Error("failed to insert order item",
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}

	committed = true
	return nil
}

func (r *repository) Get(ctx context.Context, orderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	return r.scanWithItems(ctx, row)
}

func (r *repository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE gateway_order_id = $1`, gatewayOrderID)
	return r.scanWithItems(ctx, row)
}

func (r *repository) ConfirmPaymentTx(ctx context.Context, upd ConfirmUpdate, msgs []outbox.Message) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ConfirmPaymentTx"),
		zap.String("order_id", upd.OrderID),
		zap.String("purpose", string(upd.Purpose)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The status predicate keeps a late callback from resurrecting an order
	// that was cancelled or failed while the payment was in flight.
	var res sql.Result
	if upd.Purpose == payment.PurposeToken {
		res, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET status = 'confirmed',
			    token_payment_status = 'paid',
			    token_payment_id = $1,
			    token_signature = $2,
			    updated_at = NOW()
			WHERE id = $3
			  AND token_payment_status = 'pending'
			  AND status IN ('pending', 'processing')
		`, upd.PaymentID, upd.Signature, upd.OrderID)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET status = 'confirmed',
			    payment_status = 'completed',
			    gateway_payment_id = $1,
			    gateway_signature = $2,
			    paid_at = $3,
			    updated_at = NOW()
			WHERE id = $4
			  AND payment_status = 'pending'
			  AND status IN ('pending', 'processing')
		`, upd.PaymentID, upd.Signature, upd.PaidAt, upd.OrderID)
	}
	if err != nil {
		log.Error("failed to apply payment confirmation", zap.Error(err))
		return false, err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Already confirmed; redelivery must not re-fire side effects.
		return false, tx.Commit()
	}

	if err := outbox.InsertTx(ctx, tx, msgs); err != nil {
		log.Error("failed to enqueue outbox messages", zap.Error(err))
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	committed = true
	return true, nil
}

func (r *repository) UpdateStatusTx(ctx context.Context, orderID string, from, to OrderStatus, courier, tracking *string, msgs []outbox.Message) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatusTx"),
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    courier_name = COALESCE($2, courier_name),
		    tracking_url = COALESCE($3, tracking_url),
		    updated_at = NOW()
		WHERE id = $4
		  AND status = $5
	`, to, courier, tracking, orderID, from)
	if err != nil {
		log.Error("failed to update status", zap.Error(err))
		return false, err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return false, tx.Commit()
	}

	if err := outbox.InsertTx(ctx, tx, msgs); err != nil {
		log.Error("failed to enqueue outbox messages", zap.Error(err))
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	committed = true
	return true, nil
}

func (r *repository) FailPaymentTx(ctx context.Context, orderID string, ps PaymentStatus, msgs []outbox.Message) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'failed',
		    payment_status = $1,
		    updated_at = NOW()
		WHERE id = $2
		  AND payment_status = 'pending'
		  AND status IN ('pending', 'processing')
	`, ps, orderID)
	if err != nil {
		return false, err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return false, tx.Commit()
	}

	if err := outbox.InsertTx(ctx, tx, msgs); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	committed = true
	return true, nil
}

func (r *repository) ListPendingPayments(ctx context.Context, olderThan time.Time) ([]*Order, error) {
	// COD orders whose token is already paid are excluded: the balance is
	// collected on delivery, outside the gateway's view.
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE gateway_order_id IS NOT NULL
		  AND created_at < $1
		  AND status NOT IN ('delivered', 'cancelled', 'failed')
		  AND (
			(payment_method = 'gateway' AND payment_status = 'pending')
			OR (payment_method = 'cod' AND token_payment_status = 'pending')
		  )
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *repository) ListActive(ctx context.Context) ([]*Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN ('processing', 'confirmed', 'shipped')
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *repository) HardDelete(ctx context.Context, orderID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}

	return tx.Commit()
}

func (r *repository) scanWithItems(ctx context.Context, row *sql.Row) (*Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name,
		       quantity, unit_price_minor, line_total_minor
		FROM order_items
		WHERE order_id = $1
	`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPriceMinor,
			&item.LineTotalMinor,
		); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return o, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrder(row scannable) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.Status,
		&o.PaymentStatus,
		&o.Method,
		&o.Currency,
		&o.TotalMinor,
		&o.TokenMinor,
		&o.RemainingCODMinor,
		&o.TokenStatus,
		&o.GatewayOrderID,
		&o.GatewayPaymentID,
		&o.GatewaySignature,
		&o.TokenPaymentID,
		&o.TokenSignature,
		&o.CourierName,
		&o.TrackingURL,
		&o.Address.RecipientName,
		&o.Address.Phone,
		&o.Address.Email,
		&o.Address.Line1,
		&o.Address.Line2,
		&o.Address.City,
		&o.Address.State,
		&o.Address.PostalCode,
		&o.Address.Country,
		&o.PaidAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
