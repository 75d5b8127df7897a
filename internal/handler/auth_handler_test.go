package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fortunecrack/server/internal/auth"
	"github.com/fortunecrack/server/internal/middleware"
	"github.com/fortunecrack/server/internal/migration"
	"github.com/fortunecrack/server/internal/model"
)

// mockAuthService はテスト用のAuthServiceInterface実装。
type mockAuthService struct {
	loginFunc          func(ctx context.Context, idToken, localUserID string) (*auth.LoginResult, error)
	logoutFunc         func(ctx context.Context, sessionID string) error
	getCurrentUserFunc func(ctx context.Context, sessionID string) (*model.UserProfile, error)
}

func (m *mockAuthService) Login(ctx context.Context, idToken, localUserID string) (*auth.LoginResult, error) {
	return m.loginFunc(ctx, idToken, localUserID)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	return m.logoutFunc(ctx, sessionID)
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.UserProfile, error) {
	return m.getCurrentUserFunc(ctx, sessionID)
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		CookieSecure:  false,
		SessionMaxAge: 86400,
	}
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	var gotLocalUserID string
	svc := &mockAuthService{
		loginFunc: func(_ context.Context, idToken, localUserID string) (*auth.LoginResult, error) {
			if idToken != "valid-token" {
				t.Errorf("idToken = %q", idToken)
			}
			gotLocalUserID = localUserID
			return &auth.LoginResult{
				Session: &model.Session{ID: "session-abc", UserID: "auth-1"},
				Profile: completeProfile("auth-1"),
				Migration: &migration.Result{
					ProfileMigrated:  true,
					FortunesMigrated: 3,
				},
			}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"idToken":"valid-token","deviceId":"dev1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// deviceIdはローカル擬似ユーザーIDに変換されて渡る
	if gotLocalUserID != middleware.LocalUserID("dev1") {
		t.Errorf("localUserID = %q, want %q", gotLocalUserID, middleware.LocalUserID("dev1"))
	}

	cookie := sessionCookieFrom(t, rec)
	if cookie == nil {
		t.Fatal("セッションCookieが設定されていない")
	}
	if cookie.Value != "session-abc" {
		t.Errorf("cookie value = %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("セッションCookieはHttpOnlyであるべき")
	}
	if cookie.MaxAge != 86400 {
		t.Errorf("MaxAge = %d", cookie.MaxAge)
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.User == nil || resp.User.ID != "auth-1" {
		t.Errorf("user = %+v", resp.User)
	}
	if resp.Migration == nil || !resp.Migration.ProfileMigrated || resp.Migration.FortunesMigrated != 3 {
		t.Errorf("migration = %+v", resp.Migration)
	}
}

func TestAuthHandler_Login_WithoutDeviceID(t *testing.T) {
	svc := &mockAuthService{
		loginFunc: func(_ context.Context, _, localUserID string) (*auth.LoginResult, error) {
			if localUserID != "" {
				t.Errorf("localUserID = %q, want empty", localUserID)
			}
			return &auth.LoginResult{
				Session: &model.Session{ID: "session-abc", UserID: "auth-1"},
				Profile: completeProfile("auth-1"),
			}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"idToken":"valid-token"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.Migration != nil {
		t.Errorf("移行なしの場合migrationは省略されるべき: %+v", resp.Migration)
	}
}

func TestAuthHandler_Login_MissingIDToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"deviceId":"dev1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_MigrationFailure(t *testing.T) {
	svc := &mockAuthService{
		loginFunc: func(_ context.Context, _, _ string) (*auth.LoginResult, error) {
			return nil, model.NewMigrationFailedError("failed to save profile")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"idToken":"valid-token","deviceId":"dev1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if cookie := sessionCookieFrom(t, rec); cookie != nil {
		t.Error("移行失敗時にセッションCookieを設定してはならない")
	}
	body := decodeErrorBody(t, rec)
	if body.Code != model.ErrCodeMigrationFailed {
		t.Errorf("code = %q", body.Code)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var deletedID string
	svc := &mockAuthService{
		logoutFunc: func(_ context.Context, sessionID string) error {
			deletedID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-abc"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if deletedID != "session-abc" {
		t.Errorf("削除されたセッションID = %q", deletedID)
	}
	cookie := sessionCookieFrom(t, rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Errorf("Cookieが削除されていない: %+v", cookie)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFunc: func(_ context.Context, sessionID string) (*model.UserProfile, error) {
			if sessionID != "session-abc" {
				t.Errorf("sessionID = %q", sessionID)
			}
			return completeProfile("auth-1"), nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-abc"})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var profile model.UserProfile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if profile.ID != "auth-1" {
		t.Errorf("ID = %q", profile.ID)
	}
}

func TestAuthHandler_Me_NoCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_Me_SessionNotFound(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFunc: func(_ context.Context, _ string) (*model.UserProfile, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "expired"})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	body := decodeErrorBody(t, rec)
	if body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q", body.Code)
	}
}
