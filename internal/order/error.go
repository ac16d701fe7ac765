package order

import "kirana-oms/internal/apperr"

var (
	ErrOrderNotFound      = apperr.New(apperr.KindNotFound, "order not found")
	ErrEmptyOrder         = apperr.New(apperr.KindValidation, "order must contain at least one item")
	ErrInvalidQuantity    = apperr.New(apperr.KindValidation, "item quantity must be greater than zero")
	ErrUnsupportedMethod  = apperr.New(apperr.KindValidation, "unsupported payment method")
	ErrInvalidTransition  = apperr.New(apperr.KindConflict, "invalid status transition")
	ErrStaleTransition    = apperr.New(apperr.KindConflict, "order state changed concurrently")
	ErrOrderNotTerminal   = apperr.New(apperr.KindConflict, "only terminal orders can be deleted")
	ErrUnknownOrderStatus = apperr.New(apperr.KindValidation, "unknown order status")
)
