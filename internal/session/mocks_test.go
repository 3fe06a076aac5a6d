package session

import (
	"context"

	"github.com/hitoshi/sessionbridge/internal/metrics"
	"github.com/hitoshi/sessionbridge/internal/model"
	"github.com/hitoshi/sessionbridge/internal/repository"
)

// --- モック定義 ---

type mockSessionRepo struct {
	createFn      func(ctx context.Context, session *model.Session) error
	findByTokenFn func(ctx context.Context, token string) (*model.Session, error)
	deleteFn      func(ctx context.Context, token string) error

	findCalls   int
	deleteCalls int
	created     []*model.Session
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	m.created = append(m.created, session)
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	m.findCalls++
	if m.findByTokenFn != nil {
		return m.findByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
	findCalls  int
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.findCalls++
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (m *mockUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

type recordingMetrics struct {
	metrics.NopCollector
	resolves []string
	logouts  []bool
}

func (m *recordingMetrics) RecordSessionResolve(result string) {
	m.resolves = append(m.resolves, result)
}

func (m *recordingMetrics) RecordLogout(tokenFound bool) {
	m.logouts = append(m.logouts, tokenFound)
}

// compile-time interface checks
var (
	_ repository.SessionRepository = (*mockSessionRepo)(nil)
	_ repository.UserRepository    = (*mockUserRepo)(nil)
	_ metrics.MetricsCollector     = (*recordingMetrics)(nil)
)
