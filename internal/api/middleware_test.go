package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kirana-oms/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminOnly(t *testing.T) {
	protected := AdminOnly(testAdminSecret, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(adminFromCtx(r.Context())))
	})

	t.Run("MissingTokenIsUnauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BadTokenIsForbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		protected(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("TokenSignedWithAnotherSecretIsForbidden", func(t *testing.T) {
		token, err := auth.IssueAdminToken("some-other-secret", "admin-1", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("ValidBearerTokenPassesWithAdminID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken(t))
		rec := httptest.NewRecorder()
		protected(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin-1", rec.Body.String())
	})

	t.Run("CookieTokenAlsoWorks", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: adminToken(t)})
		rec := httptest.NewRecorder()
		protected(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(new(mockOrderService), new(mockInventoryService))
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
