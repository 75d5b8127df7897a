// Package repository はデータ永続化のインターフェースを定義する。
// 各リポジトリにはローカル（キーバリューストア）とクラウド（PostgreSQL）の
// 2実装があり、認証状態に応じてファクトリ関数で選択する。
package repository

import (
	"context"

	"github.com/fortunecrack/server/internal/model"
)

// DefaultRecentLimit は運勢履歴一覧のデフォルト取得件数。
const DefaultRecentLimit = 10

// FortuneRepository は運勢データの永続化インターフェース。
type FortuneRepository interface {
	// GetFortuneByDate は(userID, date)の運勢を取得する。見つからない場合はnilを返す。
	GetFortuneByDate(ctx context.Context, userID, date string) (*model.Fortune, error)

	// SaveFortune は複合ID（userId:date）をキーに運勢をUPSERTする。
	// 保存前にJSONラウンドトリップで直列化不能なフィールドを除去する。
	SaveFortune(ctx context.Context, fortune *model.Fortune) error

	// ListRecentFortunes は指定ユーザーの運勢を日付降順でlimit件まで返す。
	// limitが0以下の場合はDefaultRecentLimitを使用する。
	ListRecentFortunes(ctx context.Context, userID string, limit int) ([]*model.Fortune, error)
}

// UserProfileRepository はユーザープロフィールの永続化インターフェース。
type UserProfileRepository interface {
	// GetProfile はプロフィールを取得する。存在しない場合は
	// デフォルトプロフィールを合成して永続化し、それを返す。
	// 以降の読み取りは常に同一の内容になる。
	GetProfile(ctx context.Context) (*model.UserProfile, error)

	// SaveProfile はプロフィールをマージ保存する。
	// UpdatedAtを常に更新し、呼び出し元が指定したIDを保持する。
	SaveProfile(ctx context.Context, profile *model.UserProfile) error

	// ClearProfile はプロフィールを消去する。
	// クラウド実装では破壊的書き込みを避けるため意図的に何もしない。
	ClearProfile(ctx context.Context) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
