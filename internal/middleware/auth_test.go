package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCheck(t *testing.T) {
	authMiddleware := NewAuthMiddlewareHandler("test-secret")
	handler := authMiddleware.AuthCheck()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handlerFunc := handler(next)

	t.Run("allowed path, no secret", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ping", nil)
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("options always allowed", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/activity/training/finish", nil)
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("protected path, no secret", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/activity/training/finish", nil)
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("protected path, wrong secret", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/activity/training/finish", nil)
		req.Header.Set(AppSecretHeader, "wrong")
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("protected path, valid secret", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/activity/training/finish", nil)
		req.Header.Set(AppSecretHeader, "test-secret")
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
