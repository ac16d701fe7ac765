package api

import (
	"net/http"

	"kirana-oms/internal/apperr"
)

type paymentCallbackRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

type paymentCallbackResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// PaymentWebhook receives the gateway's payment callback. Redelivered
// callbacks get the same 200 as the first: the transition underneath is
// idempotent and the gateway retries on anything else.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req paymentCallbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		writeError(w, r, apperr.New(apperr.KindValidation,
			"gateway_order_id, gateway_payment_id and signature are required"))
		return
	}

	o, err := h.orders.ConfirmPaymentCallback(r.Context(), req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentCallbackResponse{
		OrderID: o.ID,
		Status:  string(o.Status),
	})
}
