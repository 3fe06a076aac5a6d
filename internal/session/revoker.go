package session

import (
	"context"
	"log/slog"

	"github.com/hitoshi/sessionbridge/internal/metrics"
	"github.com/hitoshi/sessionbridge/internal/repository"
	"github.com/hitoshi/sessionbridge/internal/sessioncookie"
)

// Revoker はログアウト時にセッションレコードを削除する。
type Revoker struct {
	sessions repository.SessionRepository
	metrics  metrics.MetricsCollector
}

// NewRevoker はRevokerを生成する。
func NewRevoker(sessions repository.SessionRepository, collector metrics.MetricsCollector) *Revoker {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Revoker{sessions: sessions, metrics: collector}
}

// Revoke はCookieヘッダーのトークンに対応するセッションを削除する。
// 削除の失敗はログに残すだけで呼び出し側には返さない。
// Cookieの失効はハンドラー側で常に行う。
func (r *Revoker) Revoke(ctx context.Context, cookieHeader string) {
	token, ok := sessioncookie.TokenFromHeader(cookieHeader)
	r.metrics.RecordLogout(ok)
	if !ok {
		return
	}

	if err := r.sessions.DeleteByToken(ctx, token); err != nil {
		slog.Error("failed to delete session", slog.String("error", err.Error()))
		return
	}
	slog.Info("session revoked")
}
