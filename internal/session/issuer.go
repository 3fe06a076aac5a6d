package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/sessionbridge/internal/model"
	"github.com/hitoshi/sessionbridge/internal/repository"
)

// DefaultTTL はセッションの既定の有効期間。
const DefaultTTL = 30 * 24 * time.Hour

// Issuer は新しいセッションを発行し永続化する。
type Issuer struct {
	sessions repository.SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewIssuer はIssuerを生成する。ttlが0以下の場合はDefaultTTLを使う。
func NewIssuer(sessions repository.SessionRepository, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue はuserIDのセッションを作成する。expiresは発行時刻+TTL。
func (i *Issuer) Issue(ctx context.Context, userID string) (*model.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, model.NewStoreError("generate session token", err)
	}

	session := &model.Session{
		Token:   token,
		UserID:  userID,
		Expires: i.now().Add(i.ttl),
	}

	if err := i.sessions.Create(ctx, session); err != nil {
		return nil, model.NewStoreError("create session", err)
	}

	slog.Debug("session issued",
		slog.String("user_id", userID),
		slog.Time("expires", session.Expires),
	)
	return session, nil
}
