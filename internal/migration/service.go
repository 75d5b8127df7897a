// Package migration はログイン時のローカル→クラウドデータ移行を提供する。
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/repository"
	"github.com/fortunecrack/server/internal/storage"
)

// Status は移行処理の進行状態を表す。
type Status string

const (
	// StatusIdle は移行が開始されていない状態。
	StatusIdle Status = "idle"
	// StatusMigrating は移行処理の実行中。
	StatusMigrating Status = "migrating"
	// StatusMigrated は移行が完了した状態。
	StatusMigrated Status = "migrated"
	// StatusFailed は移行が失敗した状態。
	StatusFailed Status = "failed"
)

// Result は移行処理の結果を表す。
type Result struct {
	ProfileMigrated  bool `json:"profileMigrated"`
	FortunesMigrated int  `json:"fortunesMigrated"`
}

// Service はローカルストアのプロフィールと運勢をクラウドに移行する。
// ログイン成功後、レスポンスを返す前に同期的に実行される。
type Service struct {
	store storage.Client

	mu       sync.RWMutex
	statuses map[string]Status
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store storage.Client) *Service {
	return &Service{
		store:    store,
		statuses: make(map[string]Status),
	}
}

// StatusFor は指定ユーザーの移行状態を返す。
func (s *Service) StatusFor(authUserID string) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[authUserID]
	if !ok {
		return StatusIdle
	}
	return st
}

func (s *Service) setStatus(authUserID string, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[authUserID] = st
}

// Migrate はlocalUserIDのローカルデータをauthUserIDのクラウドデータに移行する。
// クラウド側に有効なプロフィール（名前と生年月日あり）が既にある場合は
// 上書きせず、ローカル側のみ破棄する。運勢は並行してUPSERTし、
// 全件の完了を待ってからローカル側を消去する。
// 部分的に書き込まれたデータのロールバックは行わない。
func (s *Service) Migrate(ctx context.Context, cloud repository.Pair, localUserID string) (*Result, error) {
	authUserID := cloud.UserID
	s.setStatus(authUserID, StatusMigrating)

	result, err := s.migrate(ctx, cloud, localUserID)
	if err != nil {
		s.setStatus(authUserID, StatusFailed)
		slog.Error("データ移行に失敗しました",
			slog.String("auth_user_id", authUserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewMigrationFailedError(err.Error())
	}

	s.setStatus(authUserID, StatusMigrated)
	slog.Info("データ移行が完了しました",
		slog.String("auth_user_id", authUserID),
		slog.Bool("profile_migrated", result.ProfileMigrated),
		slog.Int("fortunes_migrated", result.FortunesMigrated),
	)
	return result, nil
}

func (s *Service) migrate(ctx context.Context, cloud repository.Pair, localUserID string) (*Result, error) {
	result := &Result{}
	authUserID := cloud.UserID

	// 1. プロフィール移行
	var localProfile model.UserProfile
	if s.store.Read(storage.UserKey(localUserID), &localProfile) {
		remote, err := cloud.Profile.GetProfile(ctx)
		if err != nil {
			return nil, fmt.Errorf("クラウドプロフィールの取得に失敗しました: %w", err)
		}

		if remote.IsComplete() {
			// クラウド側が有効なら上書きしない。ローカル側のみ片付ける。
			slog.Info("有効なクラウドプロフィールが存在するためローカル側を破棄します",
				slog.String("auth_user_id", authUserID),
			)
			s.store.Delete(storage.UserKey(localUserID))
		} else {
			migrated := localProfile
			migrated.ID = authUserID
			if err := cloud.Profile.SaveProfile(ctx, &migrated); err != nil {
				return nil, fmt.Errorf("プロフィールの移行保存に失敗しました: %w", err)
			}
			s.store.Delete(storage.UserKey(localUserID))
			result.ProfileMigrated = true
		}
	}

	// 2. 運勢移行
	var fortunes map[string]*model.Fortune
	if s.store.Read(storage.FortunesKey(localUserID), &fortunes) && len(fortunes) > 0 {
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			firstErr error
		)
		for _, f := range fortunes {
			migrated := *f
			migrated.UserID = authUserID
			migrated.ID = model.BuildFortuneID(authUserID, migrated.Date)

			wg.Add(1)
			go func(f *model.Fortune) {
				defer wg.Done()
				if err := cloud.Fortunes.SaveFortune(ctx, f); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}(&migrated)
		}
		// ローカル側の消去は全書き込みの完了を待ってから行う
		wg.Wait()

		if firstErr != nil {
			return nil, fmt.Errorf("運勢の移行保存に失敗しました: %w", firstErr)
		}
		s.store.Delete(storage.FortunesKey(localUserID))
		result.FortunesMigrated = len(fortunes)
	}

	return result, nil
}
