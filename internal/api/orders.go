package api

import (
	"net/http"
	"time"

	"kirana-oms/internal/order"
)

type checkoutItemRequest struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int64   `json:"quantity"`
}

type addressRequest struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	Line1         string `json:"address_line1"`
	Line2         string `json:"address_line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

type checkoutRequest struct {
	Items         []checkoutItemRequest `json:"items"`
	Address       addressRequest        `json:"address"`
	PaymentMethod string                `json:"payment_method"`
}

type orderItemView struct {
	ProductID      string  `json:"product_id"`
	VariantID      *string `json:"variant_id,omitempty"`
	ProductName    string  `json:"product_name"`
	Quantity       int64   `json:"quantity"`
	UnitPriceMinor int64   `json:"unit_price_minor"`
	LineTotalMinor int64   `json:"line_total_minor"`
}

type orderView struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"payment_status"`
	PaymentMethod     string          `json:"payment_method"`
	Currency          string          `json:"currency"`
	TotalMinor        int64           `json:"total_minor"`
	TokenMinor        int64           `json:"token_minor,omitempty"`
	RemainingCODMinor int64           `json:"remaining_cod_minor,omitempty"`
	TokenStatus       string          `json:"token_payment_status,omitempty"`
	GatewayOrderID    *string         `json:"gateway_order_id,omitempty"`
	CourierName       *string         `json:"courier_name,omitempty"`
	TrackingURL       *string         `json:"tracking_url,omitempty"`
	Items             []orderItemView `json:"items"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func viewOf(o *order.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ProductID:      it.ProductID,
			VariantID:      it.VariantID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPriceMinor: it.UnitPriceMinor,
			LineTotalMinor: it.LineTotalMinor,
		})
	}

	return orderView{
		ID:                o.ID,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		PaymentMethod:     string(o.Method),
		Currency:          o.Currency,
		TotalMinor:        o.TotalMinor,
		TokenMinor:        o.TokenMinor,
		RemainingCODMinor: o.RemainingCODMinor,
		TokenStatus:       string(o.TokenStatus),
		GatewayOrderID:    o.GatewayOrderID,
		CourierName:       o.CourierName,
		TrackingURL:       o.TrackingURL,
		Items:             items,
		PaidAt:            o.PaidAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := order.CheckoutInput{
		Method: order.PaymentMethod(req.PaymentMethod),
		Address: order.Address{
			RecipientName: req.Address.RecipientName,
			Phone:         req.Address.Phone,
			Email:         req.Address.Email,
			Line1:         req.Address.Line1,
			Line2:         req.Address.Line2,
			City:          req.Address.City,
			State:         req.Address.State,
			PostalCode:    req.Address.PostalCode,
			Country:       req.Address.Country,
		},
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, order.CheckoutItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	o, err := h.orders.Checkout(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(o))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(o))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var actor *string
	if adminID := adminFromCtx(r.Context()); adminID != "" {
		actor = &adminID
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), order.OrderStatus(req.Status), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, viewOf(o))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var actor *string
	if adminID := adminFromCtx(r.Context()); adminID != "" {
		actor = &adminID
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), order.StatusCancelled, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, viewOf(o))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.HardDelete(r.Context(), r.PathValue("id"), adminFromCtx(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
