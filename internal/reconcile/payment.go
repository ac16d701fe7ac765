package reconcile

import (
	"context"
	"time"

	"kirana-oms/internal/logger"
	"kirana-oms/internal/metrics"
	"kirana-oms/internal/order"
	"kirana-oms/internal/payment"

	"go.uber.org/zap"
)

// PaymentReconciler sweeps orders whose payment never got a callback and
// asks the gateway directly. The gateway is the system of record for money:
// whatever it reports wins over the local payment status.
type PaymentReconciler struct {
	orders  order.Repository
	svc     order.Service
	gateway payment.Gateway
	// minAge keeps the sweep off orders young enough that the callback may
	// simply still be in flight.
	minAge time.Duration
	now    func() time.Time
}

func NewPaymentReconciler(orders order.Repository, svc order.Service, gateway payment.Gateway, minAge time.Duration) *PaymentReconciler {
	return &PaymentReconciler{
		orders:  orders,
		svc:     svc,
		gateway: gateway,
		minAge:  minAge,
		now:     time.Now,
	}
}

func (r *PaymentReconciler) Name() string { return "payment" }

func (r *PaymentReconciler) Run(ctx context.Context) (Result, error) {
	log := logger.FromCtx(ctx).With(zap.String("job", r.Name()))

	var res Result

	pending, err := r.orders.ListPendingPayments(ctx, r.now().Add(-r.minAge))
	if err != nil {
		return res, err
	}

	for _, o := range pending {
		res.Examined++
		applied, err := r.reconcileOrder(ctx, o)
		if err != nil {
			res.Errors++
			log.Error("failed to reconcile payment",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
			continue
		}
		if applied {
			res.Applied++
			metrics.DriftCorrectionsTotal.WithLabelValues(r.Name()).Inc()
		}
	}

	log.Info("payment reconciliation pass complete",
		zap.Int("examined", res.Examined),
		zap.Int("applied", res.Applied),
		zap.Int("errors", res.Errors),
	)

	return res, nil
}

func (r *PaymentReconciler) reconcileOrder(ctx context.Context, o *order.Order) (bool, error) {
	payments, err := r.gateway.FetchPayments(ctx, *o.GatewayOrderID)
	if err != nil {
		return false, err
	}

	// One gateway order can accumulate several attempts. A single captured
	// payment confirms the order regardless of earlier failed attempts; the
	// order fails only when every attempt is conclusively failed.
	var (
		captured  *payment.Payment
		sawFailed bool
		sawOpen   bool
	)
	for i := range payments {
		outcome, err := payment.Classify(payments[i])
		if err != nil {
			return false, err
		}
		switch outcome {
		case payment.OutcomeCaptured:
			captured = &payments[i]
		case payment.OutcomeRefunded:
			return true, r.svc.MarkPaymentFailed(ctx, o, payment.OutcomeRefunded)
		case payment.OutcomeFailed:
			sawFailed = true
		case payment.OutcomePending:
			sawOpen = true
		}
	}

	switch {
	case captured != nil:
		return true, r.svc.ConfirmPaymentReconciled(ctx, o, *captured)
	case sawFailed && !sawOpen:
		return true, r.svc.MarkPaymentFailed(ctx, o, payment.OutcomeFailed)
	default:
		// No payments yet, or attempts still open. Leave the order for the
		// next pass.
		return false, nil
	}
}
