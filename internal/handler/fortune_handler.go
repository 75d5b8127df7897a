// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fortunecrack/server/internal/middleware"
	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/repository"
)

// RepoSelector はリクエストの主体からリポジトリの組を選択する。
// 認証済みならクラウド実装、匿名ならローカル実装が返る。
type RepoSelector func(identity middleware.Identity) repository.Pair

// FortuneServiceInterface は運勢ハンドラーが必要とするサービスインターフェース。
type FortuneServiceInterface interface {
	GetDaily(ctx context.Context, repo repository.FortuneRepository, user *model.UserProfile, date string) (*model.Fortune, error)
	ListRecent(ctx context.Context, repo repository.FortuneRepository, userID string, limit int) ([]*model.Fortune, error)
}

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Get(ctx context.Context, repo repository.UserProfileRepository) (*model.UserProfile, error)
	Save(ctx context.Context, repo repository.UserProfileRepository, input *model.UserProfile) (*model.UserProfile, error)
	SyncLocale(ctx context.Context, repo repository.UserProfileRepository, locale model.Locale) error
	Clear(ctx context.Context, repo repository.UserProfileRepository) error
}

// FortuneHandler は運勢関連のHTTPハンドラー。
type FortuneHandler struct {
	fortuneService FortuneServiceInterface
	profileService ProfileServiceInterface
	selectRepos    RepoSelector
}

// NewFortuneHandler はFortuneHandlerを生成する。
func NewFortuneHandler(fortuneService FortuneServiceInterface, profileService ProfileServiceInterface, selectRepos RepoSelector) *FortuneHandler {
	return &FortuneHandler{
		fortuneService: fortuneService,
		profileService: profileService,
		selectRepos:    selectRepos,
	}
}

// Today は今日の運勢を返す。未生成の場合はその場で生成・保存する。
// GET /api/fortune/today?locale=ko
func (h *FortuneHandler) Today(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidRequestError("認証情報がありません"))
		return
	}

	repos := h.selectRepos(identity)

	user, err := h.profileService.Get(r.Context(), repos.Profile)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// リクエストのロケールとプロフィールのロケールがずれている場合は同期する
	if raw := r.URL.Query().Get("locale"); raw != "" {
		locale := model.NormalizeLocale(raw)
		if locale != user.Locale {
			if err := h.profileService.SyncLocale(r.Context(), repos.Profile, locale); err != nil {
				handleServiceError(w, err)
				return
			}
			user.Locale = locale
		}
	}

	fortune, err := h.fortuneService.GetDaily(r.Context(), repos.Fortunes, user, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fortune)
}

// historyResponse は運勢履歴レスポンス。
type historyResponse struct {
	Fortunes []*model.Fortune `json:"fortunes"`
}

// History は運勢履歴を日付降順で返す。
// GET /api/fortune/history?limit=10
func (h *FortuneHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidRequestError("認証情報がありません"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limitは0以上の整数で指定してください"))
			return
		}
	}

	repos := h.selectRepos(identity)

	fortunes, err := h.fortuneService.ListRecent(r.Context(), repos.Fortunes, identity.UserID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if fortunes == nil {
		fortunes = []*model.Fortune{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Fortunes: fortunes})
}
