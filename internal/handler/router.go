package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sessionbridge/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger            *slog.Logger
	HealthChecker     HealthChecker
	MetricsHandler    http.Handler // nilの場合は/metricsを公開しない
	StatusRecorder    middleware.StatusRecorder
	CORSAllowedOrigin string

	AuthService AuthServiceInterface
	Resolver    SessionResolver
	Revoker     SessionRevoker
	AuthConfig  AuthHandlerConfig
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → Metrics → SecurityHeaders → CORS
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.Resolver, deps.Revoker, deps.AuthConfig)

	r.Route("/api/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/signin/{provider}", authHandler.SignIn)
		r.Get("/callback/{provider}", authHandler.Callback)

		// セッション管理
		r.Get("/session", authHandler.Session)
		r.Post("/logout", authHandler.Logout)
	})

	if deps.HealthChecker != nil {
		r.Get("/health", Health(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	return r
}
