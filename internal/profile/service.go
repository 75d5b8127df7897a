// Package profile はユーザープロフィール管理のドメインロジックを提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/repository"
)

// Service はプロフィール管理のサービス層。
type Service struct{}

// NewService はServiceの新しいインスタンスを生成する。
func NewService() *Service {
	return &Service{}
}

// Get はプロフィールを返す。未登録の場合はリポジトリがデフォルトを合成する。
func (s *Service) Get(ctx context.Context, repo repository.UserProfileRepository) (*model.UserProfile, error) {
	p, err := repo.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	return p, nil
}

// Save は入力フィールドを既存プロフィールにマージして保存する。
// IDとCreatedAtは既存の値を保持し、空の入力フィールドは上書きしない。
func (s *Service) Save(ctx context.Context, repo repository.UserProfileRepository, input *model.UserProfile) (*model.UserProfile, error) {
	existing, err := repo.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}

	merged := *existing
	if input.Name != "" {
		merged.Name = input.Name
	}
	if input.BirthDate != "" {
		merged.BirthDate = input.BirthDate
	}
	if input.BirthTime != "" {
		merged.BirthTime = input.BirthTime
	}
	if input.BirthTimeAccuracy != "" {
		merged.BirthTimeAccuracy = input.BirthTimeAccuracy
	}
	if input.CalendarType != "" {
		merged.CalendarType = input.CalendarType
	}
	if input.Locale != "" {
		merged.Locale = model.NormalizeLocale(string(input.Locale))
	}

	if err := repo.SaveProfile(ctx, &merged); err != nil {
		return nil, fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}

	saved, err := repo.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("保存後のプロフィール取得に失敗しました: %w", err)
	}
	return saved, nil
}

// SyncLocale はリクエストのロケールとプロフィールのロケールが異なる場合のみ更新する。
// 当日運勢の生成と並行した場合はlast-write-winsとなるが許容する。
func (s *Service) SyncLocale(ctx context.Context, repo repository.UserProfileRepository, locale model.Locale) error {
	p, err := repo.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if p.Locale == locale {
		return nil
	}

	slog.Info("プロフィールのロケールを同期します",
		slog.String("user_id", p.ID),
		slog.String("from", string(p.Locale)),
		slog.String("to", string(locale)),
	)

	p.Locale = locale
	if err := repo.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}
	return nil
}

// Clear はプロフィールを消去する。クラウドリポジトリでは何も起きない。
func (s *Service) Clear(ctx context.Context, repo repository.UserProfileRepository) error {
	if err := repo.ClearProfile(ctx); err != nil {
		return fmt.Errorf("プロフィールの消去に失敗しました: %w", err)
	}
	return nil
}
