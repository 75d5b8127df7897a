package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fortunecrack/server/internal/middleware"
	"github.com/fortunecrack/server/internal/model"
)

// ProfileHandler はプロフィール関連のHTTPハンドラー。
type ProfileHandler struct {
	profileService ProfileServiceInterface
	selectRepos    RepoSelector
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(profileService ProfileServiceInterface, selectRepos RepoSelector) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		selectRepos:    selectRepos,
	}
}

// profileRequest はプロフィール更新リクエストのボディ。
type profileRequest struct {
	Name              string `json:"name"`
	BirthDate         string `json:"birthDate"`
	BirthTime         string `json:"birthTime"`
	BirthTimeAccuracy string `json:"birthTimeAccuracy"`
	CalendarType      string `json:"calendarType"`
	Locale            string `json:"locale"`
}

// Get はプロフィールを返す。未登録の場合はデフォルトプロフィールを合成する。
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidRequestError("認証情報がありません"))
		return
	}

	repos := h.selectRepos(identity)

	profile, err := h.profileService.Get(r.Context(), repos.Profile)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Update はプロフィールをマージ保存する。
// PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidRequestError("認証情報がありません"))
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディが不正です"))
		return
	}

	if apiErr := validateProfileRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	input := &model.UserProfile{
		Name:              req.Name,
		BirthDate:         req.BirthDate,
		BirthTime:         req.BirthTime,
		BirthTimeAccuracy: model.BirthTimeAccuracy(req.BirthTimeAccuracy),
		CalendarType:      model.CalendarType(req.CalendarType),
		Locale:            model.Locale(req.Locale),
	}

	repos := h.selectRepos(identity)

	saved, err := h.profileService.Save(r.Context(), repos.Profile, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

// Clear はプロフィールを消去する。クラウド側では安全のため何も起きない。
// POST /api/profile/clear
func (h *ProfileHandler) Clear(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidRequestError("認証情報がありません"))
		return
	}

	repos := h.selectRepos(identity)

	if err := h.profileService.Clear(r.Context(), repos.Profile); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validateProfileRequest はプロフィール更新リクエストの形式を検証する。
func validateProfileRequest(req *profileRequest) *model.APIError {
	if req.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", req.BirthDate); err != nil {
			return model.NewInvalidRequestError("birthDateはYYYY-MM-DD形式で指定してください")
		}
	}
	if req.BirthTime != "" {
		if _, err := time.Parse("15:04", req.BirthTime); err != nil {
			return model.NewInvalidRequestError("birthTimeはHH:mm形式で指定してください")
		}
	}
	switch model.BirthTimeAccuracy(req.BirthTimeAccuracy) {
	case "", model.AccuracyMinute, model.AccuracyHour, model.AccuracyUnknown:
	default:
		return model.NewInvalidRequestError("birthTimeAccuracyはminute/hour/unknownのいずれかを指定してください")
	}
	switch model.CalendarType(req.CalendarType) {
	case "", model.CalendarSolar, model.CalendarLunar:
	default:
		return model.NewInvalidRequestError("calendarTypeはsolar/lunarのいずれかを指定してください")
	}
	return nil
}
