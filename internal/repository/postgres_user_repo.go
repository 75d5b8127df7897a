package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/fortunecrack/server/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したプロフィールリポジトリ。
// 認証済みユーザーIDに紐付くプロフィール1件を管理する。
type PostgresUserRepo struct {
	db            *sql.DB
	userID        string
	defaultLocale model.Locale
}

// NewPostgresUserRepo は指定認証ユーザー向けのPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB, userID string, defaultLocale model.Locale) *PostgresUserRepo {
	return &PostgresUserRepo{
		db:            db,
		userID:        userID,
		defaultLocale: defaultLocale,
	}
}

// GetProfile はプロフィールを取得する。存在しない場合は
// デフォルトプロフィールを合成して永続化し、それを返す。
func (r *PostgresUserRepo) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	var birthTime sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, birth_date, birth_time, birth_time_accuracy, calendar_type, locale, created_at, updated_at
		 FROM users WHERE id = $1`,
		r.userID,
	).Scan(
		&profile.ID, &profile.Name, &profile.BirthDate, &birthTime,
		&profile.BirthTimeAccuracy, &profile.CalendarType, &profile.Locale,
		&profile.CreatedAt, &profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		fallback := model.NewDefaultProfile(r.defaultLocale, r.userID)
		if saveErr := r.SaveProfile(ctx, fallback); saveErr != nil {
			return nil, saveErr
		}
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	profile.BirthTime = birthTime.String
	return profile, nil
}

// SaveProfile はプロフィールをUPSERTする。UpdatedAtを常に更新する。
// IDはリポジトリが紐付く認証ユーザーIDに固定し、外部からの書き換えを防ぐ。
func (r *PostgresUserRepo) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	next := *profile
	next.ID = r.userID
	next.UpdatedAt = time.Now()
	if next.CreatedAt.IsZero() {
		next.CreatedAt = next.UpdatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, birth_date, birth_time, birth_time_accuracy, calendar_type, locale, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   birth_date = EXCLUDED.birth_date,
		   birth_time = EXCLUDED.birth_time,
		   birth_time_accuracy = EXCLUDED.birth_time_accuracy,
		   calendar_type = EXCLUDED.calendar_type,
		   locale = EXCLUDED.locale,
		   updated_at = EXCLUDED.updated_at`,
		next.ID, next.Name, next.BirthDate, next.BirthTime,
		next.BirthTimeAccuracy, next.CalendarType, next.Locale,
		next.CreatedAt, next.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// ClearProfile はクラウドプロフィールに対しては意図的に何もしない。
// ログアウトやリセット操作でクラウドデータを破壊しないためのデータ保全措置。
func (r *PostgresUserRepo) ClearProfile(ctx context.Context) error {
	slog.Warn("clear profile requested on cloud repository, ignoring for data safety",
		slog.String("user_id", r.userID),
	)
	return nil
}

// compile-time interface check
var _ UserProfileRepository = (*PostgresUserRepo)(nil)
