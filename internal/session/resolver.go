package session

import (
	"context"
	"time"

	"github.com/hitoshi/sessionbridge/internal/metrics"
	"github.com/hitoshi/sessionbridge/internal/model"
	"github.com/hitoshi/sessionbridge/internal/repository"
	"github.com/hitoshi/sessionbridge/internal/sessioncookie"
)

// Resolver はCookieヘッダーから現在のユーザーを解決する。
type Resolver struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewResolver はResolverを生成する。
func NewResolver(sessions repository.SessionRepository, users repository.UserRepository, collector metrics.MetricsCollector) *Resolver {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Resolver{
		sessions: sessions,
		users:    users,
		metrics:  collector,
		now:      time.Now,
	}
}

// Resolve はCookieヘッダーのセッショントークンに対応するユーザーを返す。
// 未ログイン・未知のトークン・期限切れ・ユーザー不在はいずれも(nil, nil)を返す。
// エラーを返すのはストアの読み出しに失敗した場合のみ。
func (r *Resolver) Resolve(ctx context.Context, cookieHeader string) (*model.SessionView, error) {
	token, ok := sessioncookie.TokenFromHeader(cookieHeader)
	if !ok {
		r.metrics.RecordSessionResolve(metrics.ResolveNoCookie)
		return nil, nil
	}

	session, err := r.sessions.FindByToken(ctx, token)
	if err != nil {
		r.metrics.RecordSessionResolve(metrics.ResolveError)
		return nil, model.NewStoreError("find session", err)
	}
	if session == nil {
		r.metrics.RecordSessionResolve(metrics.ResolveNotFound)
		return nil, nil
	}

	// 期限切れレコードはそのまま残す
	if session.IsExpired(r.now()) {
		r.metrics.RecordSessionResolve(metrics.ResolveExpired)
		return nil, nil
	}

	user, err := r.users.FindByID(ctx, session.UserID)
	if err != nil {
		r.metrics.RecordSessionResolve(metrics.ResolveError)
		return nil, model.NewStoreError("find user", err)
	}
	if user == nil {
		r.metrics.RecordSessionResolve(metrics.ResolveUnknownUser)
		return nil, nil
	}

	r.metrics.RecordSessionResolve(metrics.ResolveValid)
	return &model.SessionView{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Image:   user.Image,
		Expires: session.Expires,
	}, nil
}
