package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fortunecrack/server/internal/auth"
	"github.com/fortunecrack/server/internal/middleware"
	"github.com/fortunecrack/server/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, idToken, localUserID string) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.UserProfile, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
// deviceIdが指定されている場合、そのデバイスのローカルデータを
// ログインユーザーのクラウドデータへ移行する。
type loginRequest struct {
	IDToken  string `json:"idToken"`
	DeviceID string `json:"deviceId,omitempty"`
}

// loginResponse はログインレスポンス。
type loginResponse struct {
	User      *model.UserProfile `json:"user"`
	Migration *migrationSummary  `json:"migration,omitempty"`
}

// migrationSummary はログイン時に実行された移行の結果。
type migrationSummary struct {
	ProfileMigrated  bool `json:"profileMigrated"`
	FortunesMigrated int  `json:"fortunesMigrated"`
}

// Login はIDトークンを検証してセッションCookieを発行する。
// ローカルデータの移行はレスポンスを返す前に同期実行され、
// 移行の失敗はログイン全体の失敗となる。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディが不正です"))
		return
	}
	if req.IDToken == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("idTokenは必須です"))
		return
	}

	localUserID := ""
	if req.DeviceID != "" {
		localUserID = middleware.LocalUserID(req.DeviceID)
	}

	result, err := h.service.Login(r.Context(), req.IDToken, localUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	resp := loginResponse{User: result.Profile}
	if result.Migration != nil {
		resp.Migration = &migrationSummary{
			ProfileMigrated:  result.Migration.ProfileMigrated,
			FortunesMigrated: result.Migration.FortunesMigrated,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout はセッションを破棄しCookieを削除する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		// セッション削除の失敗はCookie削除を妨げない
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			slog.Warn("セッションの削除に失敗しました", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在ログイン中のユーザープロフィールを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthFailedError("ログインしていません"))
		return
	}

	profile, err := h.service.GetCurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
