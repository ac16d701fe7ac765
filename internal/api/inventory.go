package api

import (
	"net/http"
	"time"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/inventory"
)

type movementView struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	VariantID *string   `json:"variant_id,omitempty"`
	Type      string    `json:"type"`
	Quantity  int64     `json:"quantity"`
	OrderID   *string   `json:"order_id,omitempty"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Note      string    `json:"note,omitempty"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func movementViewOf(m inventory.Movement) movementView {
	return movementView{
		ID:        m.ID,
		ProductID: m.ProductID,
		VariantID: m.VariantID,
		Type:      string(m.Type),
		Quantity:  m.Quantity,
		OrderID:   m.OrderID,
		ActorID:   m.ActorID,
		Note:      m.Note,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
	}
}

func (h *Handler) ProductMovements(w http.ResponseWriter, r *http.Request) {
	var variantID *string
	if v := r.URL.Query().Get("variant_id"); v != "" {
		variantID = &v
	}

	movements, err := h.inventory.History(r.Context(), r.PathValue("id"), variantID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]movementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, movementViewOf(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": views})
}

type applyMovementRequest struct {
	ProductID     string  `json:"product_id"`
	VariantID     *string `json:"variant_id,omitempty"`
	Type          string  `json:"type"`
	Quantity      int64   `json:"quantity"`
	Note          string  `json:"note,omitempty"`
	AllowNegative bool    `json:"allow_negative,omitempty"`
}

// ApplyMovement is the manual stock operation for admins: restocks and
// corrections. Sale and refund movements belong to the order lifecycle and
// are rejected here.
func (h *Handler) ApplyMovement(w http.ResponseWriter, r *http.Request) {
	var req applyMovementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	mt := inventory.MovementType(req.Type)
	if mt != inventory.MovementAdd && mt != inventory.MovementAdjustment {
		writeError(w, r, apperr.New(apperr.KindValidation,
			"only add and adjustment movements can be applied manually"))
		return
	}

	var actor *string
	if adminID := adminFromCtx(r.Context()); adminID != "" {
		actor = &adminID
	}

	m, err := h.inventory.ApplyMovement(r.Context(), inventory.ApplyInput{
		ProductID:     req.ProductID,
		VariantID:     req.VariantID,
		Type:          mt,
		Quantity:      req.Quantity,
		ActorID:       actor,
		Note:          req.Note,
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, movementViewOf(*m))
}

type rebuildRequest struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
}

func (h *Handler) RebuildStock(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := h.inventory.Rebuild(r.Context(), req.ProductID, req.VariantID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product_id": req.ProductID,
		"variant_id": req.VariantID,
		"balance":    balance,
	})
}
