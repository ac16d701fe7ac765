package order

import (
	"context"
	"testing"
	"time"

	"kirana-oms/internal/outbox"
	"kirana-oms/internal/payment"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessages(t *testing.T, orderID string) []outbox.Message {
	t.Helper()
	msg, err := outbox.NewMessage(orderID, "payment_confirmed", outbox.ChannelEvent, outbox.EventPayload{
		OrderID: orderID,
		Status:  string(StatusConfirmed),
	})
	require.NoError(t, err)
	return []outbox.Message{msg}
}

func TestRepository_ConfirmPaymentTx(t *testing.T) {
	ctx := context.Background()

	t.Run("FullPaymentConfirms", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		sig := "sig"
		now := time.Now().UTC()
		upd := ConfirmUpdate{
			OrderID:   "o1",
			Purpose:   payment.PurposeFull,
			PaymentID: "pay_1",
			Signature: &sig,
			PaidAt:    &now,
		}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO outbox_messages`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		applied, err := repo.ConfirmPaymentTx(ctx, upd, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedeliveryIsNoOp", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		upd := ConfirmUpdate{OrderID: "o1", Purpose: payment.PurposeFull, PaymentID: "pay_1"}

		// Zero rows updated: already confirmed. No outbox rows may be written.
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := repo.ConfirmPaymentTx(ctx, upd, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CancelledOrderIsNotResurrected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		upd := ConfirmUpdate{OrderID: "o1", Purpose: payment.PurposeFull, PaymentID: "pay_1"}

		// A cancelled order keeps payment_status = 'pending'; only the status
		// predicate stops the update from matching. Zero rows, no outbox.
		mock.ExpectBegin()
		mock.ExpectExec(`status IN \('pending', 'processing'\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := repo.ConfirmPaymentTx(ctx, upd, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TokenPurposeAlsoGuardsOnStatus", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		upd := ConfirmUpdate{OrderID: "o1", Purpose: payment.PurposeToken, PaymentID: "pay_t"}

		mock.ExpectBegin()
		mock.ExpectExec(`status IN \('pending', 'processing'\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := repo.ConfirmPaymentTx(ctx, upd, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TokenPurposeGuardsOnTokenStatus", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		upd := ConfirmUpdate{OrderID: "o1", Purpose: payment.PurposeToken, PaymentID: "pay_t"}

		mock.ExpectBegin()
		mock.ExpectExec(`token_payment_status = 'paid'`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO outbox_messages`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		applied, err := repo.ConfirmPaymentTx(ctx, upd, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OutboxFailureRollsBackConfirmation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		upd := ConfirmUpdate{OrderID: "o1", Purpose: payment.PurposeFull, PaymentID: "pay_1"}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO outbox_messages`).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		applied, err := repo.ConfirmPaymentTx(ctx, upd, testMessages(t, "o1"))
		assert.Error(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_UpdateStatusTx(t *testing.T) {
	ctx := context.Background()

	t.Run("GuardedOnCurrentStatus", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(StatusShipped, nil, nil, "o1", StatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO outbox_messages`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		applied, err := repo.UpdateStatusTx(ctx, "o1", StatusConfirmed, StatusShipped, nil, nil, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ConcurrentLoserGetsFalse", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := repo.UpdateStatusTx(ctx, "o1", StatusConfirmed, StatusCancelled, nil, nil, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_FailPaymentTx(t *testing.T) {
	t.Run("PendingPaymentFails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(PaymentFailed, "o1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO outbox_messages`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		applied, err := repo.FailPaymentTx(context.Background(), "o1", PaymentFailed, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CancelledOrderIsNotFailed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`status IN \('pending', 'processing'\)`).
			WithArgs(PaymentFailed, "o1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := repo.FailPaymentTx(context.Background(), "o1", PaymentFailed, testMessages(t, "o1"))
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_HardDelete(t *testing.T) {
	t.Run("DeletesItemsThenOrder", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM order_items`).
			WithArgs("o1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM orders`).
			WithArgs("o1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.HardDelete(context.Background(), "o1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingOrder", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM order_items`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM orders`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.HardDelete(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
