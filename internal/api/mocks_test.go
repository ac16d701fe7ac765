package api

import (
	"context"

	"kirana-oms/internal/inventory"
	"kirana-oms/internal/order"
	"kirana-oms/internal/payment"

	"github.com/stretchr/testify/mock"
)

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

type mockInventoryService struct {
	mock.Mock
}

func (m *mockInventoryService) ApplyMovement(ctx context.Context, in inventory.ApplyInput) (*inventory.Movement, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Movement), args.Error(1)
}

func (m *mockInventoryService) History(ctx context.Context, productID string, variantID *string) ([]inventory.Movement, error) {
	args := m.Called(ctx, productID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Movement), args.Error(1)
}

func (m *mockInventoryService) SalesForOrder(ctx context.Context, orderID string) ([]inventory.Movement, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Movement), args.Error(1)
}

func (m *mockInventoryService) Rebuild(ctx context.Context, productID string, variantID *string) (int64, error) {
	args := m.Called(ctx, productID, variantID)
	return args.Get(0).(int64), args.Error(1)
}
