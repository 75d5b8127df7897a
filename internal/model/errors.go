// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, fortune, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeProfileIncomplete      = "PROFILE_INCOMPLETE"
	ErrCodeGeneratorNotConfigured = "GENERATOR_NOT_CONFIGURED"
	ErrCodeMigrationFailed        = "MIGRATION_FAILED"
	ErrCodeChatFailed             = "CHAT_FAILED"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeAuthFailed             = "AUTH_FAILED"
)

// NewProfileIncompleteError はプロフィール未入力エラーを生成する。
// 名前と生年月日が揃っていない状態で運勢生成を要求した場合に返す。
func NewProfileIncompleteError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileIncomplete,
		Message:  "プロフィールが未完成です。名前と生年月日を入力してください。",
		Category: "validation",
		Action:   "設定画面でプロフィールを入力してから再度お試しください。",
	}
}

// NewGeneratorNotConfiguredError は生成器の設定不備エラーを生成する。
// エンドポイントまたはAPIキーの欠落はデプロイ不備であり、起動時に検出する。
func NewGeneratorNotConfiguredError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeGeneratorNotConfigured,
		Message:  fmt.Sprintf("運勢生成の設定が不足しています: %s", detail),
		Category: "system",
		Action:   "GENERATOR_API_KEY または GENERATOR_BASE_URL の設定を確認してください。",
	}
}

// NewMigrationFailedError はログイン時データ移行の失敗エラーを生成する。
func NewMigrationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeMigrationFailed,
		Message:  fmt.Sprintf("ローカルデータの移行に失敗しました: %s", reason),
		Category: "system",
		Action:   "もう一度ログインすると移行を再試行できます。",
	}
}

// NewChatFailedError はフォローアップチャットの失敗エラーを生成する。
func NewChatFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeChatFailed,
		Message:  "チャット応答の生成に失敗しました。",
		Category: "fortune",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewAuthFailedError は認証失敗エラーを生成する。
func NewAuthFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  fmt.Sprintf("認証に失敗しました: %s", reason),
		Category: "auth",
		Action:   "IDトークンを確認して再度ログインしてください。",
	}
}
