package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestCSRFMiddleware_SafeMethodSetsCookie は安全なメソッドでトークンCookieが
// 発行されることを検証する。
func TestCSRFMiddleware_SafeMethodSetsCookie(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("csrf_token cookie was not set")
	}
}

// TestCSRFMiddleware_MissingToken_Returns403 はトークンなしの状態変更
// リクエストが403になることを検証する。
func TestCSRFMiddleware_MissingToken_Returns403(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestCSRFMiddleware_ValidToken_Passes はCookieとヘッダーのトークンが一致する
// リクエストが通過することを検証する。
func TestCSRFMiddleware_ValidToken_Passes(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-123"})
	req.Header.Set(csrfHeaderName, "token-123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestCSRFMiddleware_TokenMismatch_Returns403 はトークン不一致で403になることを検証する。
func TestCSRFMiddleware_TokenMismatch_Returns403(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-123"})
	req.Header.Set(csrfHeaderName, "token-456")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestCSRFMiddleware_ExemptPath_SkipsValidation は免除パスがトークンなしでも
// 通過することを検証する。
func TestCSRFMiddleware_ExemptPath_SkipsValidation(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{ExemptPaths: []string{"/auth/login"}})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
