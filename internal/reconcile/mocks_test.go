package reconcile

import (
	"context"
	"time"

	"kirana-oms/internal/fulfillment"
	"kirana-oms/internal/order"
	"kirana-oms/internal/outbox"
	"kirana-oms/internal/payment"

	"github.com/stretchr/testify/mock"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepo) Get(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderRepo) ConfirmPaymentTx(ctx context.Context, upd order.ConfirmUpdate, msgs []outbox.Message) (bool, error) {
	args := m.Called(ctx, upd, msgs)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatusTx(ctx context.Context, orderID string, from, to order.OrderStatus, courier, tracking *string, msgs []outbox.Message) (bool, error) {
	args := m.Called(ctx, orderID, from, to, courier, tracking, msgs)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) FailPaymentTx(ctx context.Context, orderID string, ps order.PaymentStatus, msgs []outbox.Message) (bool, error) {
	args := m.Called(ctx, orderID, ps, msgs)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) ListPendingPayments(ctx context.Context, olderThan time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *mockOrderRepo) ListActive(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *mockOrderRepo) HardDelete(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Checkout(ctx context.Context, in order.CheckoutInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderService) Get(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderService) ConfirmPaymentCallback(ctx context.Context, gatewayOrderID, paymentID, signature string) (*order.Order, error) {
	args := m.Called(ctx, gatewayOrderID, paymentID, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderService) ConfirmPaymentReconciled(ctx context.Context, o *order.Order, p payment.Payment) error {
	args := m.Called(ctx, o, p)
	return args.Error(0)
}

func (m *mockOrderService) MarkPaymentFailed(ctx context.Context, o *order.Order, outcome payment.Outcome) error {
	args := m.Called(ctx, o, outcome)
	return args.Error(0)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, orderID string, to order.OrderStatus, actorID *string) (*order.Order, error) {
	args := m.Called(ctx, orderID, to, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderService) ApplyRemoteStatus(ctx context.Context, o *order.Order, to order.OrderStatus, courier, tracking string) (bool, error) {
	args := m.Called(ctx, o, to, courier, tracking)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderService) HardDelete(ctx context.Context, orderID, adminID string) error {
	args := m.Called(ctx, orderID, adminID)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) FetchPayments(ctx context.Context, gatewayOrderID string) ([]payment.Payment, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

type mockFulfillClient struct {
	mock.Mock
}

func (m *mockFulfillClient) PushOrder(ctx context.Context, snap fulfillment.OrderSnapshot) (string, error) {
	args := m.Called(ctx, snap)
	return args.String(0), args.Error(1)
}

func (m *mockFulfillClient) FetchOrder(ctx context.Context, remoteCode string) (*fulfillment.RemoteOrder, error) {
	args := m.Called(ctx, remoteCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.RemoteOrder), args.Error(1)
}
