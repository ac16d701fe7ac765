package reconcile

import (
	"context"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/fulfillment"
	"kirana-oms/internal/logger"
	"kirana-oms/internal/metrics"
	"kirana-oms/internal/order"

	"go.uber.org/zap"
)

// FulfillmentReconciler polls the fulfillment platform for every active
// order and folds the remote status back into the local lifecycle. The
// platform is the system of record for physical movement; locally the order
// only ever moves forward through the same validated transitions a manual
// update would take.
type FulfillmentReconciler struct {
	orders order.Repository
	svc    order.Service
	client fulfillment.Client
}

func NewFulfillmentReconciler(orders order.Repository, svc order.Service, client fulfillment.Client) *FulfillmentReconciler {
	return &FulfillmentReconciler{
		orders: orders,
		svc:    svc,
		client: client,
	}
}

func (r *FulfillmentReconciler) Name() string { return "fulfillment" }

func (r *FulfillmentReconciler) Run(ctx context.Context) (Result, error) {
	log := logger.FromCtx(ctx).With(zap.String("job", r.Name()))

	var res Result

	active, err := r.orders.ListActive(ctx)
	if err != nil {
		return res, err
	}

	for _, o := range active {
		// Orders still awaiting payment were never pushed; the payment
		// reconciler owns those.
		if o.Status == order.StatusProcessing {
			continue
		}

		res.Examined++
		changed, err := r.reconcileOrder(ctx, o)
		if err != nil {
			res.Errors++
			log.Error("failed to reconcile fulfillment status",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
			continue
		}
		if changed {
			res.Applied++
			metrics.DriftCorrectionsTotal.WithLabelValues(r.Name()).Inc()
		}
	}

	log.Info("fulfillment reconciliation pass complete",
		zap.Int("examined", res.Examined),
		zap.Int("applied", res.Applied),
		zap.Int("errors", res.Errors),
	)

	return res, nil
}

func (r *FulfillmentReconciler) reconcileOrder(ctx context.Context, o *order.Order) (bool, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID))

	code := fulfillment.RemoteOrderCode(o.ID)

	remote, err := r.client.FetchOrder(ctx, code)
	if apperr.IsNotFound(err) {
		// The confirmation-time push never landed. Re-push; the remote code
		// is derived from the order id, so a race cannot double-create.
		log.Warn("order missing on fulfillment platform, re-pushing")
		if _, pushErr := r.client.PushOrder(ctx, order.Snapshot(o)); pushErr != nil {
			return false, pushErr
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	mapped, err := mapRemoteStatus(remote.Status)
	if err != nil {
		log.Error("remote status outside the known vocabulary, order left untouched",
			zap.String("remote_status", remote.Status),
		)
		return false, err
	}

	return r.svc.ApplyRemoteStatus(ctx, o, mapped, remote.Courier, remote.TrackingURL)
}
