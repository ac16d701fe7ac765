package outbox

import (
	"context"
	"database/sql"
)

type Repository interface {
	Enqueue(ctx context.Context, msgs []Message) error
	PullPending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// InsertTx writes outbox rows inside a caller-owned transaction. Order
// transitions use this so the side effects commit or roll back with the
// transition.
func InsertTx(ctx context.Context, tx *sql.Tx, msgs []Message) error {
	for _, m := range msgs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outbox_messages (
				id, order_id, event_type, channel, payload,
				status, attempts, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			m.ID,
			m.OrderID,
			m.EventType,
			m.Channel,
			m.Payload,
			m.Status,
			m.Attempts,
			m.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Enqueue(ctx context.Context, msgs []Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := InsertTx(ctx, tx, msgs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) PullPending(ctx context.Context, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, event_type, channel, payload,
		       status, attempts, created_at, sent_at
		FROM outbox_messages
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.OrderID,
			&m.EventType,
			&m.Channel,
			&m.Payload,
			&m.Status,
			&m.Attempts,
			&m.CreatedAt,
			&m.SentAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

func (r *repository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET status = 'sent', attempts = attempts + 1, sent_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (r *repository) MarkFailed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET status = 'failed', attempts = attempts + 1
		WHERE id = $1
	`, id)
	return err
}
