package api

import (
	"context"
	"net/http"

	"kirana-oms/internal/auth"
	"kirana-oms/internal/logger"
)

type ctxKey string

const adminIDKey ctxKey = "admin_id"

// AdminOnly rejects requests without a valid admin token and stores the
// admin id in the request context for handlers that record who acted.
func AdminOnly(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractAccessToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing credentials"})
			return
		}

		adminID, err := auth.VerifyAdminToken(secret, token)
		if err != nil {
			logger.FromCtx(r.Context()).Warn("rejected admin request")
			writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
			return
		}

		ctx := context.WithValue(r.Context(), adminIDKey, adminID)
		next(w, r.WithContext(ctx))
	}
}

func adminFromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(adminIDKey).(string); ok {
		return id
	}
	return ""
}
