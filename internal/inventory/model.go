package inventory

import "time"

type MovementType string

const (
	MovementAdd        MovementType = "add"
	MovementSale       MovementType = "sale"
	MovementRefund     MovementType = "refund"
	MovementAdjustment MovementType = "adjustment"
)

// SignedEffect converts the always-positive quantity into the stock delta
// this movement applies.
func (t MovementType) SignedEffect(quantity int64) int64 {
	switch t {
	case MovementAdd, MovementRefund:
		return quantity
	case MovementSale, MovementAdjustment:
		return -quantity
	}
	return 0
}

func (t MovementType) Valid() bool {
	switch t {
	case MovementAdd, MovementSale, MovementRefund, MovementAdjustment:
		return true
	}
	return false
}

// Movement is one append-only ledger entry. Entries are never updated or
// deleted; corrections are new entries of type adjustment or refund.
type Movement struct {
	ID        string
	ProductID string
	VariantID *string
	Type      MovementType
	Quantity  int64
	// Balance is the stock level after applying this entry.
	Balance   int64
	OrderID   *string
	ActorID   *string
	Note      string
	CreatedAt time.Time
}

// DuplicateSaleNote marks the zero-effect diagnostic row written when a
// second sale deduction is attempted for the same order line.
const DuplicateSaleNote = "duplicate_sale_attempt"
