package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fortunecrack/server/internal/model"
)

// mockSessionFinder はSessionFinderのモック実装。
type mockSessionFinder struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFunc(ctx, id)
}

func identityEchoHandler(t *testing.T, got *Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Errorf("identity not in context: %v", err)
		}
		*got = identity
		w.WriteHeader(http.StatusOK)
	})
}

// TestIdentityMiddleware_ValidSession_AuthenticatedIdentity は有効なセッションで
// 認証済みIdentityが注入されることを検証する。
func TestIdentityMiddleware_ValidSession_AuthenticatedIdentity(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFunc: func(_ context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "auth-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}

	var got Identity
	mw := NewIdentityMiddleware(finder)
	handler := mw(identityEchoHandler(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != "auth-1" || !got.Authenticated {
		t.Errorf("identity = %+v, want authenticated auth-1", got)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", got.SessionID)
	}
}

// TestIdentityMiddleware_DeviceID_LocalIdentity はX-Device-IDヘッダーから
// ローカルIdentityが導出されることを検証する。
func TestIdentityMiddleware_DeviceID_LocalIdentity(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFunc: func(_ context.Context, _ string) (*model.Session, error) {
			return nil, nil
		},
	}

	var got Identity
	mw := NewIdentityMiddleware(finder)
	handler := mw(identityEchoHandler(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set(DeviceIDHeaderName, "device-abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != "local-device-abc" {
		t.Errorf("UserID = %q, want local-device-abc", got.UserID)
	}
	if got.Authenticated {
		t.Error("device identity should not be authenticated")
	}
}

// TestIdentityMiddleware_ExpiredSessionWithDeviceID_FallsBackToLocal は
// 期限切れセッションCookieのみが残った場合にローカルIdentityに
// フォールバックすることを検証する。
func TestIdentityMiddleware_ExpiredSessionWithDeviceID_FallsBackToLocal(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFunc: func(_ context.Context, _ string) (*model.Session, error) {
			return nil, nil // 期限切れはnil
		},
	}

	var got Identity
	mw := NewIdentityMiddleware(finder)
	handler := mw(identityEchoHandler(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	req.Header.Set(DeviceIDHeaderName, "device-abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != "local-device-abc" || got.Authenticated {
		t.Errorf("identity = %+v, want local fallback", got)
	}
}

// TestIdentityMiddleware_NoIdentity_Returns401 はセッションもヘッダーも無い
// リクエストが401になることを検証する。
func TestIdentityMiddleware_NoIdentity_Returns401(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFunc: func(_ context.Context, _ string) (*model.Session, error) {
			return nil, nil
		},
	}

	mw := NewIdentityMiddleware(finder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
