package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(gatewayOrderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "test_secret"

	t.Run("Valid", func(t *testing.T) {
		sig := sign("order_gw1", "pay_1", secret)
		assert.NoError(t, VerifySignature("order_gw1", "pay_1", sig, secret))
	})

	t.Run("Tampered", func(t *testing.T) {
		sig := sign("order_gw1", "pay_1", secret)
		err := VerifySignature("order_gw1", "pay_OTHER", sig, secret)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		sig := sign("order_gw1", "pay_1", "attacker_secret")
		err := VerifySignature("order_gw1", "pay_1", sig, secret)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("EmptySignature", func(t *testing.T) {
		err := VerifySignature("order_gw1", "pay_1", "", secret)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		status  string
		outcome Outcome
	}{
		{"captured", OutcomeCaptured},
		{"created", OutcomePending},
		{"authorized", OutcomePending},
		{"failed", OutcomeFailed},
		{"refunded", OutcomeRefunded},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			outcome, err := Classify(Payment{Status: tc.status})
			assert.NoError(t, err)
			assert.Equal(t, tc.outcome, outcome)
		})
	}

	t.Run("UnknownStatusIsAnError", func(t *testing.T) {
		_, err := Classify(Payment{Status: "disputed"})
		assert.ErrorIs(t, err, ErrUnknownStatus)
	})
}
