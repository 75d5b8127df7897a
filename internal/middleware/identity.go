// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fortunecrack/server/internal/model"
)

const (
	// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
	SessionCookieName = "session_id"

	// DeviceIDHeaderName は匿名ユーザーの端末識別ヘッダー名。
	DeviceIDHeaderName = "X-Device-ID"

	// LocalUserPrefix は匿名ユーザーのパーティションキーのプレフィックス。
	LocalUserPrefix = "local-"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストにIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// identityHolderKey は外側のミドルウェア（ロギング等）が解決済みIdentityを
// 参照するためのホルダーを格納するキー。コンテキストは下流にしか伝播しないため、
// 上流へはポインタ経由で共有する。
var identityHolderKey = contextKey("identityHolder")

// identityHolder は下流で解決されたIdentityを上流に共有するための入れ物。
type identityHolder struct {
	identity *Identity
}

// ContextWithIdentityHolder はIdentity共有用のホルダーをコンテキストに注入する。
// 戻り値のホルダーは下流でIdentityが解決された後に参照できる。
func ContextWithIdentityHolder(ctx context.Context) (context.Context, *identityHolder) {
	holder := &identityHolder{}
	return context.WithValue(ctx, identityHolderKey, holder), holder
}

// Identity は解決済みのIdentityを返す。未解決の場合はnil。
func (h *identityHolder) Identity() *Identity {
	if h == nil {
		return nil
	}
	return h.identity
}

// Identity はリクエストの主体を表す。
// 有効なセッションがあれば認証済みユーザー、なければX-Device-IDから導出した
// ローカルユーザーになる。
type Identity struct {
	// UserID はデータのパーティションキー（認証済みIDまたはローカル擬似ID）。
	UserID string
	// SessionID は有効なセッションのID。未認証の場合は空。
	SessionID string
	// Authenticated はクラウドリポジトリを選択すべきかを示す。
	Authenticated bool
}

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// LocalUserID は端末識別子からローカルユーザーのパーティションキーを導出する。
func LocalUserID(deviceID string) string {
	return LocalUserPrefix + deviceID
}

// NewIdentityMiddleware はリクエストの主体を解決するミドルウェアを返す。
// 有効なセッションCookieがあれば認証済みユーザーとして、なければ
// X-Device-IDヘッダーからローカルユーザーとして扱う。
// どちらも無いリクエストには401 Unauthorizedを返す。
func NewIdentityMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := resolveIdentity(w, r, sessionFinder)
			if !ok {
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveIdentity はCookieとヘッダーからIdentityを解決する。
// 解決できない場合はエラーレスポンスを書き込んでfalseを返す。
func resolveIdentity(w http.ResponseWriter, r *http.Request, sessionFinder SessionFinder) (Identity, bool) {
	// 1. セッションCookieを確認
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
		if err != nil {
			slog.Error("failed to find session",
				slog.String("error", err.Error()),
			)
			WriteInternalServerError(w)
			return Identity{}, false
		}
		if session != nil {
			return Identity{
				UserID:        session.UserID,
				SessionID:     session.ID,
				Authenticated: true,
			}, true
		}
		// 期限切れセッションは匿名として続行する（Cookieだけが残っているケース）
	}

	// 2. 端末識別ヘッダーを確認
	if deviceID := r.Header.Get(DeviceIDHeaderName); deviceID != "" {
		return Identity{UserID: LocalUserID(deviceID)}, true
	}

	WriteErrorResponse(w, http.StatusUnauthorized,
		model.NewInvalidRequestError("セッションまたはX-Device-IDヘッダーが必要です"))
	return Identity{}, false
}

// IdentityFromContext はリクエストコンテキストからIdentityを取得する。
// IdentityMiddlewareを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || identity.UserID == "" {
		return Identity{}, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// 上流にホルダーが注入されている場合はそちらにも共有する。
// テストやミドルウェア以外のコンテキスト生成でも使用する。
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	if holder, ok := ctx.Value(identityHolderKey).(*identityHolder); ok {
		holder.identity = &identity
	}
	return context.WithValue(ctx, identityContextKey, identity)
}
