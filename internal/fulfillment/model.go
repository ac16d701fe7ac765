package fulfillment

import "strings"

// OrderSnapshot is the immutable view of a local order pushed to the
// platform at payment confirmation.
type OrderSnapshot struct {
	OrderCode     string
	RecipientName string
	Phone         string
	Email         string
	AddressLine1  string
	AddressLine2  string
	City          string
	State         string
	PostalCode    string
	Country       string
	PaymentMethod string
	TotalMinor    int64
	CODMinor      int64
	Items         []SnapshotItem
}

type SnapshotItem struct {
	Name           string
	SKU            string
	Quantity       int64
	UnitPriceMinor int64
}

// RemoteOrder is the platform's view of a pushed order.
type RemoteOrder struct {
	ID          string
	Status      string
	Courier     string
	TrackingURL string
}

// RemoteOrderCode derives the platform order code deterministically from the
// local order id, so reconciliation can always re-find the remote order
// without storing a second correlation id.
func RemoteOrderCode(orderID string) string {
	compact := strings.ReplaceAll(orderID, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "KO-" + strings.ToUpper(compact)
}
