package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/catalog"
	"kirana-oms/internal/fulfillment"
	"kirana-oms/internal/inventory"
	"kirana-oms/internal/logger"
	"kirana-oms/internal/metrics"
	"kirana-oms/internal/outbox"
	"kirana-oms/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutItem struct {
	ProductID string
	VariantID *string
	Quantity  int64
}

type CheckoutInput struct {
	Items   []CheckoutItem
	Address Address
	Method  PaymentMethod
}

type Config struct {
	GatewaySecret string
	CODTokenMinor int64
	Currency      string
}

type Service interface {
	Checkout(ctx context.Context, in CheckoutInput) (*Order, error)
	Get(ctx context.Context, orderID string) (*Order, error)

	// ConfirmPaymentCallback is the real-time path: a gateway callback with
	// a signature to verify.
	ConfirmPaymentCallback(ctx context.Context, gatewayOrderID, paymentID, signature string) (*Order, error)
	// ConfirmPaymentReconciled is the batch path: the payment was fetched
	// directly from the gateway over its authenticated API, so there is no
	// callback signature; both paths share the same transition.
	ConfirmPaymentReconciled(ctx context.Context, o *Order, p payment.Payment) error
	MarkPaymentFailed(ctx context.Context, o *Order, outcome payment.Outcome) error

	UpdateStatus(ctx context.Context, orderID string, to OrderStatus, actorID *string) (*Order, error)
	// ApplyRemoteStatus applies a status derived from the fulfillment
	// platform, stepping through intermediate transitions when the remote
	// side skipped ahead. Returns whether anything changed.
	ApplyRemoteStatus(ctx context.Context, o *Order, to OrderStatus, courier, tracking string) (bool, error)

	// HardDelete removes an erroneous or test order entirely. Admin-only,
	// terminal orders only, never reachable through normal transitions.
	HardDelete(ctx context.Context, orderID, adminID string) error
}

type service struct {
	repo     Repository
	catalog  catalog.Repository
	ledger   inventory.Service
	gateway  payment.Gateway
	payments payment.Repository
	fulfill  fulfillment.Client
	cfg      Config
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	ledger inventory.Service,
	gateway payment.Gateway,
	payments payment.Repository,
	fulfill fulfillment.Client,
	cfg Config,
) Service {
	return &service{
		repo:     repo,
		catalog:  catalogRepo,
		ledger:   ledger,
		gateway:  gateway,
		payments: payments,
		fulfill:  fulfill,
		cfg:      cfg,
	}
}

func (s *service) Checkout(ctx context.Context, in CheckoutInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Int("item_count", len(in.Items)),
		zap.String("payment_method", string(in.Method)),
	)

	// 1. Validate input
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if missing := in.Address.MissingFields(); len(missing) > 0 {
		return nil, apperr.New(apperr.KindValidation,
			fmt.Sprintf("shipping address incomplete: missing %v", missing))
	}
	switch in.Method {
	case MethodGateway, MethodCOD:
	default:
		return nil, ErrUnsupportedMethod
	}

	// 2. Snapshot prices from the catalog
	orderID := uuid.New().String()
	items := make([]OrderItem, 0, len(in.Items))
	var total int64

	for _, ci := range in.Items {
		if ci.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.catalog.GetProduct(ctx, ci.ProductID)
		if err != nil {
			return nil, err
		}

		unitPrice := product.PriceMinor
		if ci.VariantID != nil {
			variant, err := s.catalog.GetVariant(ctx, ci.ProductID, *ci.VariantID)
			if err != nil {
				return nil, err
			}
			unitPrice = variant.PriceMinor
		}

		lineTotal := unitPrice * ci.Quantity
		total += lineTotal

		items = append(items, OrderItem{
			ID:             uuid.New().String(),
			OrderID:        orderID,
			ProductID:      ci.ProductID,
			VariantID:      ci.VariantID,
			ProductName:    product.Name,
			Quantity:       ci.Quantity,
			UnitPriceMinor: unitPrice,
			LineTotalMinor: lineTotal,
		})
	}

	now := time.Now().UTC()
	o := &Order{
		ID:         orderID,
		Method:     in.Method,
		Currency:   s.cfg.Currency,
		TotalMinor: total,
		Address:    in.Address,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// 3. Register the charge with the gateway. The amount depends on the
	// payment method: full for gateway payments, the token deposit for COD.
	var chargeMinor int64
	switch in.Method {
	case MethodGateway:
		o.Status = StatusProcessing
		o.PaymentStatus = PaymentPending
		chargeMinor = total
	case MethodCOD:
		o.Status = StatusPending
		o.PaymentStatus = PaymentPending
		o.TokenMinor = s.cfg.CODTokenMinor
		if o.TokenMinor > total {
			o.TokenMinor = total
		}
		o.RemainingCODMinor = total - o.TokenMinor
		o.TokenStatus = TokenPending
		chargeMinor = o.TokenMinor
	}

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, chargeMinor, o.Currency, orderID)
	if err != nil {
		log.Error("failed to create gateway order", zap.Error(err))
		return nil, err
	}
	o.GatewayOrderID = &gatewayOrderID

	// 4. Persist
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
		zap.Int64("total_minor", o.TotalMinor),
	)

	return o, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *service) ConfirmPaymentCallback(ctx context.Context, gatewayOrderID, paymentID, signature string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ConfirmPaymentCallback"),
		zap.String("gateway_order_id", gatewayOrderID),
	)

	o, err := s.repo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	// An unverified signature leaves the order untouched; no side effect
	// may ever be credited on it.
	if err := payment.VerifySignature(gatewayOrderID, paymentID, signature, s.cfg.GatewaySecret); err != nil {
		log.Warn("payment callback signature invalid", zap.String("order_id", o.ID))
		return nil, err
	}

	if err := s.confirmPayment(ctx, o, paymentID, &signature); err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, o.ID)
}

func (s *service) ConfirmPaymentReconciled(ctx context.Context, o *Order, p payment.Payment) error {
	return s.confirmPayment(ctx, o, p.ID, nil)
}

// confirmPayment is the single payment-confirmed transition shared by the
// callback and reconciliation paths. Applying it twice changes state once:
// the repository's conditional update is the idempotency barrier.
func (s *service) confirmPayment(ctx context.Context, o *Order, paymentID string, signature *string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "confirmPayment"),
		zap.String("order_id", o.ID),
	)

	purpose := payment.PurposeFull
	amount := o.TotalMinor
	if o.Method == MethodCOD {
		purpose = payment.PurposeToken
		amount = o.TokenMinor
	}

	// Fast no-op on redelivery.
	if o.Method == MethodGateway && o.IsPaid() {
		log.Info("payment already confirmed, no-op")
		return nil
	}
	if o.Method == MethodCOD && o.TokenStatus == TokenPaid {
		log.Info("token payment already confirmed, no-op")
		return nil
	}

	// A callback can land after the order was cancelled or failed with the
	// payment still marked pending. Confirmation never restarts such an
	// order; the repository's status predicate backs this up under races.
	if o.Status != StatusPending && o.Status != StatusProcessing {
		log.Warn("payment callback for an order no longer awaiting payment, ignored",
			zap.String("status", string(o.Status)))
		return nil
	}

	confirmed := *o
	confirmed.Status = StatusConfirmed
	if purpose == payment.PurposeToken {
		confirmed.TokenStatus = TokenPaid
	} else {
		confirmed.PaymentStatus = PaymentCompleted
	}
	msgs := paymentConfirmedMessages(&confirmed)

	now := time.Now().UTC()
	upd := ConfirmUpdate{
		OrderID:   o.ID,
		Purpose:   purpose,
		PaymentID: paymentID,
		Signature: signature,
	}
	if purpose == payment.PurposeFull {
		upd.PaidAt = &now
	}

	applied, err := s.repo.ConfirmPaymentTx(ctx, upd, msgs)
	if err != nil {
		return err
	}
	if !applied {
		log.Info("payment confirmation raced a concurrent confirmation, no-op")
		return nil
	}

	log.Info("payment confirmed", zap.String("purpose", string(purpose)))

	// Audit row; losing it must not fail the confirmation.
	rec := &payment.Record{
		ID:               uuid.New().String(),
		OrderID:          o.ID,
		GatewayOrderID:   derefOr(o.GatewayOrderID, ""),
		GatewayPaymentID: paymentID,
		Purpose:          purpose,
		AmountMinor:      amount,
		Status:           "captured",
		CreatedAt:        now,
	}
	if err := s.payments.SaveRecord(ctx, rec); err != nil {
		log.Warn("failed to persist payment audit record", zap.Error(err))
	}

	// External push is best-effort here; the fulfillment reconciler
	// re-pushes orders the platform does not know about.
	s.pushToFulfillment(ctx, &confirmed)

	return nil
}

func (s *service) pushToFulfillment(ctx context.Context, o *Order) {
	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID))

	snap := Snapshot(o)
	if _, err := s.fulfill.PushOrder(ctx, snap); err != nil {
		log.Warn("fulfillment push failed, will retry via reconciliation", zap.Error(err))
	}
}

// Snapshot maps an order onto the view pushed to the fulfillment platform.
func Snapshot(o *Order) fulfillment.OrderSnapshot {
	items := make([]fulfillment.SnapshotItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, fulfillment.SnapshotItem{
			Name:           it.ProductName,
			SKU:            it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceMinor: it.UnitPriceMinor,
		})
	}

	var codMinor int64
	if o.Method == MethodCOD {
		codMinor = o.RemainingCODMinor
	}

	return fulfillment.OrderSnapshot{
		OrderCode:     fulfillment.RemoteOrderCode(o.ID),
		RecipientName: o.Address.RecipientName,
		Phone:         o.Address.Phone,
		Email:         o.Address.Email,
		AddressLine1:  o.Address.Line1,
		AddressLine2:  o.Address.Line2,
		City:          o.Address.City,
		State:         o.Address.State,
		PostalCode:    o.Address.PostalCode,
		Country:       o.Address.Country,
		PaymentMethod: string(o.Method),
		TotalMinor:    o.TotalMinor,
		CODMinor:      codMinor,
		Items:         items,
	}
}

func (s *service) MarkPaymentFailed(ctx context.Context, o *Order, outcome payment.Outcome) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkPaymentFailed"),
		zap.String("order_id", o.ID),
		zap.String("outcome", string(outcome)),
	)

	if o.PaymentStatus != PaymentPending {
		return nil
	}

	ps := PaymentFailed
	eventType := "payment_failed"
	if outcome == payment.OutcomeRefunded {
		ps = PaymentRefunded
		eventType = "payment_refunded"
	}

	failed := *o
	failed.Status = StatusFailed
	failed.PaymentStatus = ps
	msgs := statusEventMessage(&failed, eventType)

	applied, err := s.repo.FailPaymentTx(ctx, o.ID, ps, msgs)
	if err != nil {
		return err
	}
	if applied {
		log.Info("order marked failed from payment outcome")
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID string, to OrderStatus, actorID *string) (*Order, error) {
	if !ValidStatus(to) {
		return nil, ErrUnknownOrderStatus
	}

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := s.transition(ctx, o, to, actorID, nil, nil); err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orderID)
}

// transition performs one validated step of the lifecycle and its side
// effects. Side-effect ordering is deliberate: shipment deducts stock before
// the status flips, because the ledger's duplicate guard makes a retried
// deduction harmless, while cancellation flips status first, because the
// conditional update electing a single winner is what keeps the refund from
// running twice.
func (s *service) transition(ctx context.Context, o *Order, to OrderStatus, actorID *string, courier, tracking *string) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "transition"),
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
	)

	if o.Status == to {
		return false, nil
	}
	if !CanTransition(o.Status, to) {
		log.Warn("rejected invalid status transition")
		return false, ErrInvalidTransition
	}

	next := *o
	next.Status = to

	if to == StatusCancelled {
		applied, err := s.repo.UpdateStatusTx(ctx, o.ID, o.Status, to, courier, tracking, cancelledMessages(&next))
		if err != nil {
			return false, err
		}
		if !applied {
			return false, ErrStaleTransition
		}
		o.Status = to
		if err := s.refundDeductions(ctx, o, actorID); err != nil {
			return true, err
		}
		log.Info("order cancelled")
		return true, nil
	}

	var msgs []outbox.Message
	switch to {
	case StatusShipped:
		if err := s.deductStock(ctx, o, actorID); err != nil {
			return false, err
		}
		msgs = shippedMessages(&next, derefOr(pick(tracking, o.TrackingURL), ""))
	case StatusDelivered:
		msgs = deliveredMessages(&next)
	case StatusFailed:
		msgs = statusEventMessage(&next, "failed")
	default:
		msgs = statusEventMessage(&next, string(to))
	}

	applied, err := s.repo.UpdateStatusTx(ctx, o.ID, o.Status, to, courier, tracking, msgs)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, ErrStaleTransition
	}

	o.Status = to
	log.Info("order status updated")
	return true, nil
}

// deductStock fires the single sale deduction per order line. Deduction
// happens at shipment confirmation, not payment confirmation, so stock is
// never held against orders that may still fail.
func (s *service) deductStock(ctx context.Context, o *Order, actorID *string) error {
	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID))

	for _, item := range o.Items {
		_, err := s.ledger.ApplyMovement(ctx, inventory.ApplyInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Type:      inventory.MovementSale,
			Quantity:  item.Quantity,
			OrderID:   &o.ID,
			ActorID:   actorID,
			Note:      "shipment deduction",
		})
		switch {
		case err == nil:
		case errors.Is(err, inventory.ErrDuplicateSale):
			// Retried shipment; this line was already deducted.
		case errors.Is(err, inventory.ErrInsufficientStock):
			metrics.InvariantViolationsTotal.Inc()
			log.Error("invariant violation: insufficient stock while shipping a confirmed order",
				zap.String("product_id", item.ProductID),
				zap.Int64("quantity", item.Quantity),
			)
			return apperr.Wrap(apperr.KindInvariant,
				"insufficient stock for confirmed order "+o.ID, err)
		default:
			return err
		}
	}
	return nil
}

// refundDeductions restores whatever the ledger says was deducted for this
// order. Driven by the ledger, not the order items, so it refunds exactly
// what was taken.
func (s *service) refundDeductions(ctx context.Context, o *Order, actorID *string) error {
	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID))

	sales, err := s.ledger.SalesForOrder(ctx, o.ID)
	if err != nil {
		return err
	}

	for _, sale := range sales {
		_, err := s.ledger.ApplyMovement(ctx, inventory.ApplyInput{
			ProductID: sale.ProductID,
			VariantID: sale.VariantID,
			Type:      inventory.MovementRefund,
			Quantity:  sale.Quantity,
			OrderID:   &o.ID,
			ActorID:   actorID,
			Note:      "cancellation refund",
		})
		if err != nil {
			metrics.InvariantViolationsTotal.Inc()
			log.Error("invariant violation: failed to refund deducted stock on cancellation",
				zap.String("product_id", sale.ProductID),
				zap.Error(err),
			)
			return apperr.Wrap(apperr.KindInvariant,
				"failed to refund stock for cancelled order "+o.ID, err)
		}
	}
	return nil
}

func (s *service) ApplyRemoteStatus(ctx context.Context, o *Order, to OrderStatus, courier, tracking string) (bool, error) {
	var c, t *string
	if courier != "" {
		c = &courier
	}
	if tracking != "" {
		t = &tracking
	}

	if o.Status == to {
		// Status unchanged; refresh courier/tracking when the platform
		// learned something new.
		if (c != nil && derefOr(o.CourierName, "") != courier) ||
			(t != nil && derefOr(o.TrackingURL, "") != tracking) {
			_, err := s.repo.UpdateStatusTx(ctx, o.ID, o.Status, o.Status, c, t, nil)
			return err == nil, err
		}
		return false, nil
	}

	path := transitionPath(o.Status, to)
	if path == nil {
		return false, ErrInvalidTransition
	}

	changed := false
	for _, step := range path {
		applied, err := s.transition(ctx, o, step, nil, c, t)
		if err != nil {
			return changed, err
		}
		changed = changed || applied
	}
	return changed, nil
}

// transitionPath finds the shortest valid chain from one status to another,
// so a remote system that skipped ahead (say, straight to delivered) still
// drives every intermediate side effect exactly once.
func transitionPath(from, to OrderStatus) []OrderStatus {
	if from == to {
		return []OrderStatus{}
	}

	type node struct {
		status OrderStatus
		path   []OrderStatus
	}

	visited := map[OrderStatus]bool{from: true}
	queue := []node{{status: from}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range transitions[cur.status] {
			if visited[next] {
				continue
			}
			path := append(append([]OrderStatus{}, cur.path...), next)
			if next == to {
				return path
			}
			visited[next] = true
			queue = append(queue, node{status: next, path: path})
		}
	}
	return nil
}

func (s *service) HardDelete(ctx context.Context, orderID, adminID string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HardDelete"),
		zap.String("order_id", orderID),
		zap.String("admin_id", adminID),
	)

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if !IsTerminal(o.Status) {
		return ErrOrderNotTerminal
	}

	if err := s.repo.HardDelete(ctx, orderID); err != nil {
		return err
	}

	log.Warn("order hard-deleted by admin")
	return nil
}

func derefOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}

func pick(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}
