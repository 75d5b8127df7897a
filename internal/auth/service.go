// Package auth はIDトークン検証、セッション管理、ログイン時のデータ移行連携を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/fortunecrack/server/internal/migration"
	"github.com/fortunecrack/server/internal/model"
	"github.com/fortunecrack/server/internal/repository"
	"github.com/fortunecrack/server/internal/storage"
)

// TokenUserInfo は認証プロバイダーから取得したユーザー情報を表す。
type TokenUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
}

// TokenVerifier はIDトークン検証のインターフェース。
// 将来的に複数IdPに対応するための抽象化。
type TokenVerifier interface {
	// Verify はIDトークンを検証し、ユーザー情報を返す。
	Verify(ctx context.Context, idToken string) (*TokenUserInfo, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// ログイン成功時はレスポンスを返す前にローカルデータの移行を同期実行する。
type Service struct {
	verifier     TokenVerifier
	sessionRepo  repository.SessionRepository
	migrationSvc *migration.Service
	config       ServiceConfig

	// forSession は認証済みユーザーのクラウドリポジトリを選択する。
	forSession func(authUserID string) repository.Pair
}

// NewService はServiceを生成する。
func NewService(
	verifier TokenVerifier,
	sessionRepo repository.SessionRepository,
	migrationSvc *migration.Service,
	db *sql.DB,
	store storage.Client,
	defaultLocale model.Locale,
	config ServiceConfig,
) *Service {
	return &Service{
		verifier:     verifier,
		sessionRepo:  sessionRepo,
		migrationSvc: migrationSvc,
		config:       config,
		forSession: func(authUserID string) repository.Pair {
			return repository.ForSession(db, store, authUserID, "", defaultLocale)
		},
	}
}

// LoginResult はログイン処理の結果を表す。
type LoginResult struct {
	Session   *model.Session
	Profile   *model.UserProfile
	Migration *migration.Result
}

// Login はIDトークンを検証してセッションを発行する。
// localUserIDが指定されている場合、セッション発行前にローカルデータを
// クラウドへ移行する。移行の失敗はログイン全体の失敗となる（再試行可能）。
func (s *Service) Login(ctx context.Context, idToken, localUserID string) (*LoginResult, error) {
	info, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		slog.Warn("IDトークンの検証に失敗しました", slog.String("error", err.Error()))
		return nil, model.NewAuthFailedError("IDトークンの検証に失敗しました")
	}

	authUserID := info.ProviderUserID
	cloud := s.forSession(authUserID)

	// プロフィール行を確保する（未登録ならデフォルトを合成・永続化）
	profile, err := cloud.Profile.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("クラウドプロフィールの初期化に失敗しました: %w", err)
	}

	var migResult *migration.Result
	if localUserID != "" {
		migResult, err = s.migrationSvc.Migrate(ctx, cloud, localUserID)
		if err != nil {
			return nil, err
		}
		// 移行でプロフィールが差し替わった場合は取り直す
		if migResult.ProfileMigrated {
			profile, err = cloud.Profile.GetProfile(ctx)
			if err != nil {
				return nil, fmt.Errorf("移行後のプロフィール取得に失敗しました: %w", err)
			}
		}
	}

	session, err := s.createSession(ctx, authUserID)
	if err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("ログインしました",
		slog.String("user_id", authUserID),
		slog.Bool("migrated", migResult != nil && (migResult.ProfileMigrated || migResult.FortunesMigrated > 0)),
	)

	return &LoginResult{
		Session:   session,
		Profile:   profile,
		Migration: migResult,
	}, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("ログアウトしました", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザープロフィールを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.UserProfile, error) {
	session, err := s.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, model.NewUserNotFoundError()
	}

	cloud := s.forSession(session.UserID)
	profile, err := cloud.Profile.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}

	return profile, nil
}

// FindSession はセッションIDから有効なセッションを取得する。
// 期限切れまたは存在しない場合はnilを返す。
func (s *Service) FindSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
