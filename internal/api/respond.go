package api

import (
	"encoding/json"
	"net/http"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/logger"

	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.L().Error("failed to encode response", zap.Error(err))
		}
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Unclassified
// errors become an opaque 500; internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.KindValidation, apperr.KindSignatureInvalid:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict, apperr.KindInsufficientStock:
		status = http.StatusConflict
	case apperr.KindExternal:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	body := errorBody{Kind: string(kind)}
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed", zap.Error(err))
		body.Error = "internal server error"
		body.Kind = ""
	} else {
		body.Error = err.Error()
	}

	writeJSON(w, status, body)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed request body", err)
	}
	return nil
}
