package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithIdentity(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/fortune/today", nil)
	return req.WithContext(ContextWithIdentity(req.Context(), Identity{UserID: userID}))
}

// TestGeneralMiddleware_AllowsWithinBurst はバースト内のリクエストが
// 通過することを検証する。
func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    3,
		ChatRate:        rate.Limit(1),
		ChatBurst:       1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithIdentity("user-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

// TestGeneralMiddleware_Returns429OverBurst はバースト超過で429と
// Retry-Afterヘッダーが返ることを検証する。
func TestGeneralMiddleware_Returns429OverBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.5),
		GeneralBurst:    1,
		ChatRate:        rate.Limit(1),
		ChatBurst:       1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header is missing")
	}
}

// TestRateLimiter_PerUserIsolation はユーザーごとに独立して制限されることを検証する。
func TestRateLimiter_PerUserIsolation(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.5),
		GeneralBurst:    1,
		ChatRate:        rate.Limit(1),
		ChatBurst:       1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("user-1: status = %d, want 200", rec.Code)
	}

	// 別ユーザーは制限されない
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("user-2"))
	if rec.Code != http.StatusOK {
		t.Errorf("user-2: status = %d, want 200", rec.Code)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

// TestChatMiddleware_IndependentFromGeneral はチャット制限がAPI全般の制限と
// 独立に動作することを検証する。
func TestChatMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(10),
		GeneralBurst:    100,
		ChatRate:        rate.Limit(0.5),
		ChatBurst:       1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	chatHandler := rl.ChatMiddleware()(okHandler())
	generalHandler := rl.GeneralMiddleware()(okHandler())

	rec := httptest.NewRecorder()
	chatHandler.ServeHTTP(rec, requestWithIdentity("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first chat: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	chatHandler.ServeHTTP(rec, requestWithIdentity("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second chat: status = %d, want 429", rec.Code)
	}

	// チャットが制限されてもAPI全般は通る
	rec = httptest.NewRecorder()
	generalHandler.ServeHTTP(rec, requestWithIdentity("user-1"))
	if rec.Code != http.StatusOK {
		t.Errorf("general after chat limit: status = %d, want 200", rec.Code)
	}
}

// TestRateLimiter_NoIdentity_Returns401 はIdentity未解決のリクエストが
// 401になることを検証する。
func TestRateLimiter_NoIdentity_Returns401(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fortune/today", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
