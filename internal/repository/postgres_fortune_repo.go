package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortunecrack/server/internal/model"
	"github.com/lib/pq"
)

// PostgresFortuneRepo はPostgreSQLを使用した運勢リポジトリ。
// ユーザーごとのサブコレクションとして(user_id, date)を主キーに保存する。
type PostgresFortuneRepo struct {
	db *sql.DB
}

// NewPostgresFortuneRepo はPostgresFortuneRepoを生成する。
func NewPostgresFortuneRepo(db *sql.DB) *PostgresFortuneRepo {
	return &PostgresFortuneRepo{db: db}
}

// GetFortuneByDate は(userID, date)の運勢を取得する。見つからない場合はnilを返す。
func (r *PostgresFortuneRepo) GetFortuneByDate(ctx context.Context, userID, date string) (*model.Fortune, error) {
	fortune := &model.Fortune{}
	var keywords pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, summary, full_text, color, "precision", locale, model, keywords, quote, created_at
		 FROM fortunes
		 WHERE user_id = $1 AND date = $2`,
		userID, date,
	).Scan(
		&fortune.ID, &fortune.UserID, &fortune.Date,
		&fortune.Summary, &fortune.FullText, &fortune.Color,
		&fortune.Precision, &fortune.Locale, &fortune.Model,
		&keywords, &fortune.Quote, &fortune.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fortune by date: %w", err)
	}

	fortune.Keywords = keywords
	return fortune, nil
}

// SaveFortune は複合IDをキーに運勢をUPSERTする。
// 同一(user_id, date)への再保存は既存行を上書きする。
func (r *PostgresFortuneRepo) SaveFortune(ctx context.Context, fortune *model.Fortune) error {
	sanitized, err := sanitizeFortune(fortune)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO fortunes (id, user_id, date, summary, full_text, color, "precision", locale, model, keywords, quote, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id, date) DO UPDATE SET
		   id = EXCLUDED.id,
		   summary = EXCLUDED.summary,
		   full_text = EXCLUDED.full_text,
		   color = EXCLUDED.color,
		   "precision" = EXCLUDED."precision",
		   locale = EXCLUDED.locale,
		   model = EXCLUDED.model,
		   keywords = EXCLUDED.keywords,
		   quote = EXCLUDED.quote,
		   created_at = EXCLUDED.created_at`,
		sanitized.ID, sanitized.UserID, sanitized.Date,
		sanitized.Summary, sanitized.FullText, sanitized.Color,
		sanitized.Precision, sanitized.Locale, sanitized.Model,
		pq.StringArray(sanitized.Keywords), sanitized.Quote, sanitized.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fortune: %w", err)
	}

	return nil
}

// ListRecentFortunes は指定ユーザーの運勢を日付降順でlimit件まで返す。
func (r *PostgresFortuneRepo) ListRecentFortunes(ctx context.Context, userID string, limit int) ([]*model.Fortune, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, summary, full_text, color, "precision", locale, model, keywords, quote, created_at
		 FROM fortunes
		 WHERE user_id = $1
		 ORDER BY date DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent fortunes: %w", err)
	}
	defer rows.Close()

	var fortunes []*model.Fortune
	for rows.Next() {
		fortune := &model.Fortune{}
		var keywords pq.StringArray
		if err := rows.Scan(
			&fortune.ID, &fortune.UserID, &fortune.Date,
			&fortune.Summary, &fortune.FullText, &fortune.Color,
			&fortune.Precision, &fortune.Locale, &fortune.Model,
			&keywords, &fortune.Quote, &fortune.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fortune: %w", err)
		}
		fortune.Keywords = keywords
		fortunes = append(fortunes, fortune)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fortunes: %w", err)
	}

	return fortunes, nil
}

// compile-time interface check
var _ FortuneRepository = (*PostgresFortuneRepo)(nil)
