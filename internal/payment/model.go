package payment

import (
	"encoding/json"
	"time"
)

// Payment is the gateway's view of one charge attempt, as returned by the
// payments API and by callbacks.
type Payment struct {
	ID             string
	GatewayOrderID string
	Status         string
	AmountMinor    int64
	Currency       string
	Method         string
	CreatedAt      time.Time
}

// Outcome is the single shared classification used by both the real-time
// callback path and batch reconciliation.
type Outcome string

const (
	OutcomeCaptured Outcome = "captured"
	OutcomeFailed   Outcome = "failed"
	OutcomeRefunded Outcome = "refunded"
	OutcomePending  Outcome = "pending"
)

// Purpose distinguishes the full charge from the COD token deposit.
type Purpose string

const (
	PurposeFull  Purpose = "full"
	PurposeToken Purpose = "token"
)

// Record is the persisted audit row for every callback or poll result.
type Record struct {
	ID               string
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Purpose          Purpose
	AmountMinor      int64
	Status           string
	Raw              json.RawMessage
	CreatedAt        time.Time
}
