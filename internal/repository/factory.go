package repository

import (
	"database/sql"

	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/storage"
)

// Pair はリクエストに紐付くリポジトリの組。
// 認証状態に応じてローカル実装とクラウド実装のどちらかに揃える。
type Pair struct {
	Fortunes FortuneRepository
	Profile  UserProfileRepository
	// UserID は選択されたパーティションキー（ローカル擬似IDまたは認証済みID）。
	UserID string
	// Cloud はクラウド実装が選択されたことを示す。
	Cloud bool
}

// ForSession は認証状態をキーにリポジトリの組を選択する。
// authUserIDが空の場合はローカル実装（localUserIDのパーティション）を、
// 空でない場合はクラウド実装を返す。選択の分岐はこの1関数に集約する。
func ForSession(db *sql.DB, store storage.Client, authUserID, localUserID string, defaultLocale model.Locale) Pair {
	if authUserID != "" {
		return Pair{
			Fortunes: NewPostgresFortuneRepo(db),
			Profile:  NewPostgresUserRepo(db, authUserID, defaultLocale),
			UserID:   authUserID,
			Cloud:    true,
		}
	}

	return Pair{
		Fortunes: NewLocalFortuneRepo(store),
		Profile:  NewLocalUserRepo(store, localUserID, defaultLocale),
		UserID:   localUserID,
		Cloud:    false,
	}
}
