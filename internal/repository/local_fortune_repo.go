package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/storage"
)

// LocalFortuneRepo はローカルキーバリューストアを使用した運勢リポジトリ。
// ユーザーごとに1つのキーへ、運勢IDからFortuneへのマップをJSONで保存する。
type LocalFortuneRepo struct {
	store storage.Client
}

// NewLocalFortuneRepo はLocalFortuneRepoを生成する。
func NewLocalFortuneRepo(store storage.Client) *LocalFortuneRepo {
	return &LocalFortuneRepo{store: store}
}

// fortuneMap はローカル保存形式。運勢ID（"userId:date"）をキーとする。
type fortuneMap map[string]*model.Fortune

// GetFortuneByDate は(userID, date)の運勢を取得する。見つからない場合はnilを返す。
func (r *LocalFortuneRepo) GetFortuneByDate(ctx context.Context, userID, date string) (*model.Fortune, error) {
	fortunes := fortuneMap{}
	r.store.Read(storage.FortunesKey(userID), &fortunes)
	return fortunes[model.BuildFortuneID(userID, date)], nil
}

// SaveFortune は複合IDをキーに運勢をUPSERTする。
func (r *LocalFortuneRepo) SaveFortune(ctx context.Context, fortune *model.Fortune) error {
	sanitized, err := sanitizeFortune(fortune)
	if err != nil {
		return err
	}

	fortunes := fortuneMap{}
	r.store.Read(storage.FortunesKey(fortune.UserID), &fortunes)
	fortunes[sanitized.ID] = sanitized
	r.store.Write(storage.FortunesKey(fortune.UserID), fortunes)
	return nil
}

// ListRecentFortunes は指定ユーザーの運勢を日付降順でlimit件まで返す。
func (r *LocalFortuneRepo) ListRecentFortunes(ctx context.Context, userID string, limit int) ([]*model.Fortune, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	fortunes := fortuneMap{}
	r.store.Read(storage.FortunesKey(userID), &fortunes)

	result := make([]*model.Fortune, 0, len(fortunes))
	for _, f := range fortunes {
		if f != nil && f.UserID == userID {
			result = append(result, f)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date > result[j].Date
	})

	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// sanitizeFortune はJSONラウンドトリップで保存値を正規化する。
// 直列化できないフィールドを落とし、保存形と読み出し形を一致させる。
func sanitizeFortune(fortune *model.Fortune) (*model.Fortune, error) {
	raw, err := json.Marshal(fortune)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fortune: %w", err)
	}
	sanitized := &model.Fortune{}
	if err := json.Unmarshal(raw, sanitized); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fortune: %w", err)
	}
	return sanitized, nil
}

// compile-time interface check
var _ FortuneRepository = (*LocalFortuneRepo)(nil)
