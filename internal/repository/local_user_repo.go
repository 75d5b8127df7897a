package repository

import (
	"context"
	"time"

	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/storage"
)

// LocalUserRepo はローカルキーバリューストアを使用したプロフィールリポジトリ。
// 1ユーザー分のプロフィールをひとつのキーにJSONで保存する。
type LocalUserRepo struct {
	store         storage.Client
	userID        string
	defaultLocale model.Locale
}

// NewLocalUserRepo は指定ローカルユーザー向けのLocalUserRepoを生成する。
func NewLocalUserRepo(store storage.Client, userID string, defaultLocale model.Locale) *LocalUserRepo {
	return &LocalUserRepo{
		store:         store,
		userID:        userID,
		defaultLocale: defaultLocale,
	}
}

// GetProfile はプロフィールを取得する。存在しない場合は
// デフォルトプロフィールを合成して永続化し、それを返す。
func (r *LocalUserRepo) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	if r.store.Read(storage.UserKey(r.userID), profile) {
		return profile, nil
	}

	fallback := model.NewDefaultProfile(r.defaultLocale, r.userID)
	r.store.Write(storage.UserKey(r.userID), fallback)
	return fallback, nil
}

// SaveProfile はプロフィールを保存する。UpdatedAtを常に更新し、
// 呼び出し元が指定したIDを保持する。
func (r *LocalUserRepo) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	next := *profile
	next.UpdatedAt = time.Now()
	r.store.Write(storage.UserKey(next.ID), &next)
	return nil
}

// ClearProfile はローカルプロフィールを削除する。
func (r *LocalUserRepo) ClearProfile(ctx context.Context) error {
	r.store.Delete(storage.UserKey(r.userID))
	return nil
}

// compile-time interface check
var _ UserProfileRepository = (*LocalUserRepo)(nil)
