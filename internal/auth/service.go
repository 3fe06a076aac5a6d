package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sessionbridge/internal/metrics"
	"github.com/hitoshi/sessionbridge/internal/model"
)

// UserReconciler はプロバイダーのユーザー情報をユーザーレコードへ反映する。
type UserReconciler interface {
	Reconcile(ctx context.Context, info *OAuthUserInfo) (*model.User, error)
}

// SessionIssuer はユーザーの新しいセッションを発行する。
type SessionIssuer interface {
	Issue(ctx context.Context, userID string) (*model.Session, error)
}

// Service はログインフロー（コード交換 → ユーザー照合 → セッション発行）を提供する。
type Service struct {
	providers  map[string]OAuthProvider
	reconciler UserReconciler
	issuer     SessionIssuer
	metrics    metrics.MetricsCollector
}

// NewService はServiceを生成する。providersは名前で引けるように登録する。
func NewService(
	reconciler UserReconciler,
	issuer SessionIssuer,
	collector metrics.MetricsCollector,
	providers ...OAuthProvider,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	byName := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Service{
		providers:  byName,
		reconciler: reconciler,
		issuer:     issuer,
		metrics:    collector,
	}
}

// HasProvider は指定名のプロバイダーが登録されているかを返す。
func (s *Service) HasProvider(provider string) bool {
	_, ok := s.providers[provider]
	return ok
}

// GetLoginURL は指定プロバイダーのOAuth認証URLを生成する。
func (s *Service) GetLoginURL(provider, state, redirectURI string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", model.NewClientInputError("login url", fmt.Errorf("unknown provider %q", provider))
	}
	return p.GetLoginURL(state, redirectURI), nil
}

// HandleCallback はOAuthコールバックを処理し、発行したセッションを返す。
// いずれかの段階で失敗した場合はそこで処理を打ち切る。
func (s *Service) HandleCallback(ctx context.Context, provider, code, redirectURI string) (*model.Session, error) {
	p, ok := s.providers[provider]
	if !ok {
		s.metrics.RecordLogin(metrics.ProviderUnknown, metrics.LoginClientError)
		return nil, model.NewClientInputError("callback", fmt.Errorf("unknown provider %q", provider))
	}
	if code == "" {
		s.metrics.RecordLogin(provider, metrics.LoginClientError)
		return nil, model.NewClientInputError("callback", model.ErrMissingCode)
	}

	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	start := time.Now()
	info, err := p.ExchangeCode(ctx, code, redirectURI)
	s.metrics.RecordProviderLatency(provider, time.Since(start))
	if err != nil {
		s.recordFailure(provider, err)
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. ユーザーを作成または更新
	user, err := s.reconciler.Reconcile(ctx, info)
	if err != nil {
		s.recordFailure(provider, err)
		return nil, fmt.Errorf("failed to reconcile user: %w", err)
	}

	// 3. セッションを発行
	session, err := s.issuer.Issue(ctx, user.ID)
	if err != nil {
		s.recordFailure(provider, err)
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.metrics.RecordLogin(provider, metrics.LoginSuccess)
	slog.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("provider", provider),
	)
	return session, nil
}

func (s *Service) recordFailure(provider string, err error) {
	switch model.KindOf(err) {
	case model.KindClientInput:
		s.metrics.RecordLogin(provider, metrics.LoginClientError)
	case model.KindUpstreamProvider:
		s.metrics.RecordLogin(provider, metrics.LoginUpstreamError)
	default:
		s.metrics.RecordLogin(provider, metrics.LoginStoreError)
	}
}
