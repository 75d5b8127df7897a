// Package fortune は当日運勢の取得・キャッシュ・履歴のドメインロジックを提供する。
package fortune

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fortunecrack/server/internal/metrics"
	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/repository"
)

// dateLayout は運勢の日付キーのレイアウト（YYYY-MM-DD）。
const dateLayout = "2006-01-02"

// Generator は運勢生成バックエンドの抽象。
// エラーを返すのはバックエンドが未設定の場合のみ。
type Generator interface {
	GenerateDailyFortune(ctx context.Context, user *model.UserProfile, date string) (*model.GeneratedFortune, error)
}

// Service は当日運勢のサービス層。
// 同一(ユーザー, 日付)の運勢は一度だけ生成し、以降はキャッシュから返す。
type Service struct {
	generator Generator
	collector metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(generator Generator, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Service{
		generator: generator,
		collector: collector,
		now:       time.Now,
	}
}

// LocalDateString は時刻をローカル暦の日付キー（YYYY-MM-DD）に変換する。
// UTCではなくサーバーのローカル日付を使用する。
func LocalDateString(t time.Time) string {
	return t.Format(dateLayout)
}

// GetDaily は指定日の運勢を返す。dateが空の場合は今日（ローカル日付）を使用する。
// 保存済みの運勢があればそれを返し、生成器は呼び出さない。
// なければプロフィール完成チェックの上で生成・保存する。
func (s *Service) GetDaily(ctx context.Context, repo repository.FortuneRepository, user *model.UserProfile, date string) (*model.Fortune, error) {
	if date == "" {
		date = LocalDateString(s.now())
	}

	cached, err := repo.GetFortuneByDate(ctx, user.ID, date)
	if err != nil {
		return nil, fmt.Errorf("保存済み運勢の取得に失敗しました: %w", err)
	}
	if cached != nil {
		s.collector.RecordCacheHit()
		return cached, nil
	}
	s.collector.RecordCacheMiss()

	if !user.IsComplete() {
		return nil, model.NewProfileIncompleteError()
	}

	slog.Info("当日の運勢を生成します",
		slog.String("user_id", user.ID),
		slog.String("date", date),
		slog.String("locale", string(user.Locale)),
	)

	generated, err := s.generator.GenerateDailyFortune(ctx, user, date)
	if err != nil {
		return nil, fmt.Errorf("運勢の生成に失敗しました: %w", err)
	}

	fortune := &model.Fortune{
		ID:        model.BuildFortuneID(user.ID, date),
		UserID:    user.ID,
		Date:      date,
		Summary:   generated.Summary,
		FullText:  generated.FullText,
		Color:     generated.Color,
		Precision: generated.Precision,
		Locale:    user.Locale,
		Model:     generated.Model,
		Keywords:  generated.Keywords,
		Quote:     generated.Quote,
		CreatedAt: s.now(),
	}

	if err := repo.SaveFortune(ctx, fortune); err != nil {
		return nil, fmt.Errorf("運勢の保存に失敗しました: %w", err)
	}

	return fortune, nil
}

// ListRecent は運勢履歴を日付降順でlimit件まで返す。
// limitが0以下の場合はデフォルト件数を使用する。
func (s *Service) ListRecent(ctx context.Context, repo repository.FortuneRepository, userID string, limit int) ([]*model.Fortune, error) {
	if limit <= 0 {
		limit = repository.DefaultRecentLimit
	}

	fortunes, err := repo.ListRecentFortunes(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("運勢履歴の取得に失敗しました: %w", err)
	}

	return fortunes, nil
}
