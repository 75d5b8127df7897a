// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// Locale は運勢生成に対応する言語を表す。
type Locale string

const (
	// LocaleEN は英語。未対応ロケールのフォールバック先でもある。
	LocaleEN Locale = "en"
	// LocaleKO は韓国語。
	LocaleKO Locale = "ko"
	// LocaleJA は日本語。
	LocaleJA Locale = "ja"
	// LocaleZH は中国語（簡体字）。
	LocaleZH Locale = "zh"
)

// AllLocales は対応する全ロケールの一覧。
// ロケール別テーブル（プロンプト、フォールバック）の網羅性検証に使用する。
var AllLocales = []Locale{LocaleEN, LocaleKO, LocaleJA, LocaleZH}

// NormalizeLocale は入力文字列を対応ロケールに正規化する。
// 未対応の値はLocaleENにフォールバックする。
func NormalizeLocale(s string) Locale {
	switch Locale(s) {
	case LocaleKO, LocaleJA, LocaleZH, LocaleEN:
		return Locale(s)
	default:
		return LocaleEN
	}
}

// BirthTimeAccuracy は生時（出生時刻）の精度を表す。
type BirthTimeAccuracy string

const (
	// AccuracyMinute は分単位で生時が判明していることを示す。
	AccuracyMinute BirthTimeAccuracy = "minute"
	// AccuracyHour は時間単位でのみ生時が判明していることを示す。
	AccuracyHour BirthTimeAccuracy = "hour"
	// AccuracyUnknown は生時が不明であることを示す。
	AccuracyUnknown BirthTimeAccuracy = "unknown"
)

// CalendarType は生年月日の暦の種別を表す。
type CalendarType string

const (
	// CalendarSolar は新暦（太陽暦）。
	CalendarSolar CalendarType = "solar"
	// CalendarLunar は旧暦（太陰暦）。
	CalendarLunar CalendarType = "lunar"
)

// UserProfile はユーザーの出生情報プロフィールを表す。
// IDは全ユーザーデータのパーティションキーであり、
// ログイン時のマイグレーションを除き不変として扱う。
type UserProfile struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	BirthDate         string            `json:"birthDate"`           // YYYY-MM-DD
	BirthTime         string            `json:"birthTime,omitempty"` // HH:mm
	BirthTimeAccuracy BirthTimeAccuracy `json:"birthTimeAccuracy"`
	CalendarType      CalendarType      `json:"calendarType"`
	Locale            Locale            `json:"locale"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// IsComplete は運勢生成に必要な情報（名前と生年月日）が揃っているかを返す。
func (p *UserProfile) IsComplete() bool {
	return p.Name != "" && p.BirthDate != ""
}

// NewDefaultProfile は未登録ユーザー向けのデフォルトプロフィールを生成する。
// idが空の場合はローカル擬似IDを払い出す。
func NewDefaultProfile(locale Locale, id string) *UserProfile {
	if id == "" {
		id = "local-" + uuid.New().String()
	}
	now := time.Now()
	return &UserProfile{
		ID:                id,
		Name:              "",
		BirthDate:         "",
		BirthTimeAccuracy: AccuracyUnknown,
		CalendarType:      CalendarSolar,
		Locale:            locale,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
