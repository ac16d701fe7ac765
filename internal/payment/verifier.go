package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature recomputes the HMAC-SHA256 over "gatewayOrderID|paymentID"
// and compares it constant-time against the provided signature. Callers must
// never credit payment on an unverified signature.
func VerifySignature(gatewayOrderID, gatewayPaymentID, providedSignature, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(providedSignature)) {
		return ErrSignatureInvalid
	}
	return nil
}

// Classify maps the gateway's reported status string onto the local outcome
// vocabulary. Unknown statuses are an error, never a silent default: both the
// webhook and the reconciler refuse to act on a status they cannot read.
func Classify(p Payment) (Outcome, error) {
	switch p.Status {
	case "captured":
		return OutcomeCaptured, nil
	case "created", "authorized":
		return OutcomePending, nil
	case "failed":
		return OutcomeFailed, nil
	case "refunded":
		return OutcomeRefunded, nil
	}
	return "", ErrUnknownStatus
}
