package api

import (
	"net/http"

	"kirana-oms/internal/inventory"
	"kirana-oms/internal/logger"
	"kirana-oms/internal/order"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	orders    order.Service
	inventory inventory.Service
}

func NewHandler(orders order.Service, inv inventory.Service) *Handler {
	return &Handler{orders: orders, inventory: inv}
}

// NewRouter wires every route. Storefront routes are open, webhook auth is
// the signature inside the payload, everything operational is admin-only.
func NewRouter(h *Handler, adminSecret string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /webhooks/payment", h.PaymentWebhook)

	mux.HandleFunc("POST /api/v1/orders", h.Checkout)
	mux.HandleFunc("GET /api/v1/orders/{id}", h.GetOrder)

	mux.HandleFunc("PATCH /api/v1/orders/{id}/status", AdminOnly(adminSecret, h.UpdateOrderStatus))
	mux.HandleFunc("POST /api/v1/orders/{id}/cancel", AdminOnly(adminSecret, h.CancelOrder))
	mux.HandleFunc("DELETE /api/v1/orders/{id}", AdminOnly(adminSecret, h.DeleteOrder))

	mux.HandleFunc("GET /api/v1/products/{id}/movements", AdminOnly(adminSecret, h.ProductMovements))
	mux.HandleFunc("POST /api/v1/inventory/movements", AdminOnly(adminSecret, h.ApplyMovement))
	mux.HandleFunc("POST /api/v1/inventory/rebuild", AdminOnly(adminSecret, h.RebuildStock))

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))
}
