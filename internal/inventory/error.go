package inventory

import "kirana-oms/internal/apperr"

var (
	ErrProductNotFound   = apperr.New(apperr.KindNotFound, "product not found")
	ErrVariantNotFound   = apperr.New(apperr.KindNotFound, "variant not found")
	ErrInsufficientStock = apperr.New(apperr.KindInsufficientStock, "insufficient stock")
	ErrDuplicateSale     = apperr.New(apperr.KindConflict, "sale movement already recorded for this order line")
	ErrInvalidMovement   = apperr.New(apperr.KindValidation, "invalid movement")
)
