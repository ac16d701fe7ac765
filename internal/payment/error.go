package payment

import "kirana-oms/internal/apperr"

var (
	ErrSignatureInvalid = apperr.New(apperr.KindSignatureInvalid, "payment signature verification failed")
	ErrUnknownStatus    = apperr.New(apperr.KindExternal, "unrecognized gateway payment status")
)
