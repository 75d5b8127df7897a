package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fortunecrack/server/internal/middleware"
	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/repository"
)

func putProfileRequest(identity middleware.Identity, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
}

func TestProfileHandler_Get(t *testing.T) {
	identity := middleware.Identity{UserID: "local-dev1"}
	profileSvc := &mockProfileService{
		getFunc: func(_ context.Context, _ repository.UserProfileRepository) (*model.UserProfile, error) {
			return completeProfile("local-dev1"), nil
		},
	}
	h := NewProfileHandler(profileSvc, testRepoSelector(t, "local-dev1"))

	req := requestWithIdentity(http.MethodGet, "/api/profile", identity)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var profile model.UserProfile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if profile.Name != "홍길동" {
		t.Errorf("Name = %q", profile.Name)
	}
}

func TestProfileHandler_Update(t *testing.T) {
	identity := middleware.Identity{UserID: "local-dev1"}
	var savedInput *model.UserProfile
	profileSvc := &mockProfileService{
		saveFunc: func(_ context.Context, _ repository.UserProfileRepository, input *model.UserProfile) (*model.UserProfile, error) {
			savedInput = input
			out := *input
			out.ID = "local-dev1"
			return &out, nil
		},
	}
	h := NewProfileHandler(profileSvc, testRepoSelector(t, "local-dev1"))

	body := `{"name":"山田太郎","birthDate":"1985-12-01","birthTime":"08:30","birthTimeAccuracy":"minute","calendarType":"lunar","locale":"ja"}`
	rec := httptest.NewRecorder()
	h.Update(rec, putProfileRequest(identity, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if savedInput == nil {
		t.Fatal("Saveが呼ばれていない")
	}
	if savedInput.Name != "山田太郎" {
		t.Errorf("Name = %q", savedInput.Name)
	}
	if savedInput.BirthTimeAccuracy != model.AccuracyMinute {
		t.Errorf("BirthTimeAccuracy = %q", savedInput.BirthTimeAccuracy)
	}
	if savedInput.CalendarType != model.CalendarLunar {
		t.Errorf("CalendarType = %q", savedInput.CalendarType)
	}
}

func TestProfileHandler_Update_ValidationErrors(t *testing.T) {
	identity := middleware.Identity{UserID: "local-dev1"}
	h := NewProfileHandler(&mockProfileService{}, testRepoSelector(t, "local-dev1"))

	tests := []struct {
		name string
		body string
	}{
		{"不正なJSON", `{`},
		{"生年月日の形式違反", `{"name":"a","birthDate":"1985/12/01"}`},
		{"出生時刻の形式違反", `{"name":"a","birthDate":"1985-12-01","birthTime":"8時30分"}`},
		{"不明な精度", `{"name":"a","birthDate":"1985-12-01","birthTimeAccuracy":"second"}`},
		{"不明な暦法", `{"name":"a","birthDate":"1985-12-01","calendarType":"mayan"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Update(rec, putProfileRequest(identity, tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			body := decodeErrorBody(t, rec)
			if body.Code != model.ErrCodeInvalidRequest {
				t.Errorf("code = %q", body.Code)
			}
		})
	}
}

func TestProfileHandler_Clear(t *testing.T) {
	identity := middleware.Identity{UserID: "local-dev1"}
	cleared := false
	profileSvc := &mockProfileService{
		clearFunc: func(_ context.Context, _ repository.UserProfileRepository) error {
			cleared = true
			return nil
		},
	}
	h := NewProfileHandler(profileSvc, testRepoSelector(t, "local-dev1"))

	req := requestWithIdentity(http.MethodPost, "/api/profile/clear", identity)
	rec := httptest.NewRecorder()
	h.Clear(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if !cleared {
		t.Error("Clearが呼ばれていない")
	}
}
