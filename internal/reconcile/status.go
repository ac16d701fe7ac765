package reconcile

import (
	"kirana-oms/internal/apperr"
	"kirana-oms/internal/order"
)

var ErrUnknownRemoteStatus = apperr.New(apperr.KindValidation, "unknown remote fulfillment status")

// mapRemoteStatus translates the fulfillment platform's status vocabulary
// into the local lifecycle. The mapping is exhaustive over the statuses the
// platform documents; anything else is an error and the local order stays
// untouched until a human looks at it.
func mapRemoteStatus(remote string) (order.OrderStatus, error) {
	switch remote {
	case "NEW", "INVOICED", "READY_TO_SHIP", "PICKUP_SCHEDULED":
		return order.StatusConfirmed, nil
	case "SHIPPED", "IN_TRANSIT", "OUT_FOR_DELIVERY":
		return order.StatusShipped, nil
	case "DELIVERED":
		return order.StatusDelivered, nil
	case "CANCELED", "CANCELLED":
		return order.StatusCancelled, nil
	}
	return "", ErrUnknownRemoteStatus
}
