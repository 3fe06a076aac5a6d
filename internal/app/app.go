// Package app はアプリケーションの起動とサブコマンドの実装を提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/sessionbridge/internal/auth"
	"github.com/hitoshi/sessionbridge/internal/config"
	"github.com/hitoshi/sessionbridge/internal/database"
	"github.com/hitoshi/sessionbridge/internal/handler"
	"github.com/hitoshi/sessionbridge/internal/logger"
	"github.com/hitoshi/sessionbridge/internal/metrics"
	"github.com/hitoshi/sessionbridge/internal/security"
	"github.com/hitoshi/sessionbridge/internal/session"
	"github.com/hitoshi/sessionbridge/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ログレベルの反映
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。サブコマンド省略時はserveとして起動する。
func Run(w io.Writer, args []string) error {
	cmd := NewRootCommand(w)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. ストア接続
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// SQLiteは起動時にスキーマを適用する（冪等）
	if cfg.StoreDriver == config.StoreDriverSQLite {
		if err := database.ApplySQLiteSchema(ctx, st.db); err != nil {
			return fmt.Errorf("failed to apply sqlite schema: %w", err)
		}
	}

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      buildRouter(cfg, st, collector, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はプロバイダー・セッション層・ハンドラーを組み立てる。
func buildRouter(cfg *config.Config, st *store, collector *metrics.Collector, gatherer prometheus.Gatherer) http.Handler {
	providers := []auth.OAuthProvider{
		auth.NewLineOAuthProvider(auth.LineOAuthConfig{
			ChannelID:     cfg.LineChannelID,
			ChannelSecret: cfg.LineChannelSecret,
			AuthURL:       cfg.LineAuthURL,
			TokenURL:      cfg.LineTokenURL,
			ProfileURL:    cfg.LineProfileURL,
		}),
	}
	if cfg.GoogleEnabled() {
		providers = append(providers, auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
		}))
	}

	reconciler := auth.NewReconciler(st.users, security.NewProfileSanitizer())
	issuer := session.NewIssuer(st.sessions, cfg.SessionTTL)
	authService := auth.NewService(reconciler, issuer, collector, providers...)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		HealthChecker:     st.db,
		MetricsHandler:    metrics.Handler(gatherer),
		StatusRecorder:    collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,

		AuthService: authService,
		Resolver:    session.NewResolver(st.sessions, st.users, collector),
		Revoker:     session.NewRevoker(st.sessions, collector),
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			PostLoginPath: cfg.PostLoginPath,
		},
	}

	return handler.NewRouter(deps)
}

// runMigrate はデータベースのスキーマを最新化する。
// PostgreSQLはgolang-migrateで未適用マイグレーションを順番に適用し、
// SQLiteは埋め込みスキーマを適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreDriver == config.StoreDriverSQLite {
		slog.Info("applying sqlite schema", slog.String("path", cfg.SQLitePath))

		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.ApplySQLiteSchema(context.Background(), db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("sqlite schema applied successfully")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runPurgeSessions は期限切れセッションを一括削除する。
// 運用者が明示的に実行するワンショットのコマンド。
func runPurgeSessions(ctx context.Context, cfg *config.Config, grace time.Duration) (int64, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	job := cleanup.NewCleanupJob(st.sessions, slog.Default())
	job.Grace = grace
	return job.Run(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
