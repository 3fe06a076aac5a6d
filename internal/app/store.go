package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hitoshi/sessionbridge/internal/config"
	"github.com/hitoshi/sessionbridge/internal/database"
	"github.com/hitoshi/sessionbridge/internal/repository"
)

// sessionStore はセッション永続化に使うリポジトリとその接続をまとめる。
type sessionStore interface {
	repository.SessionRepository
	repository.SessionPurger
}

type store struct {
	db       *sql.DB
	users    repository.UserRepository
	sessions sessionStore
}

// openStore は設定のドライバに応じてストアを開き、疎通を確認する。
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established", slog.String("driver", cfg.StoreDriver))
		return &store{
			db:       db,
			users:    repository.NewSQLiteUserRepo(db),
			sessions: repository.NewSQLiteSessionRepo(db),
		}, nil

	case config.StoreDriverPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established", slog.String("driver", cfg.StoreDriver))
		return &store{
			db:       db,
			users:    repository.NewPostgresUserRepo(db),
			sessions: repository.NewPostgresSessionRepo(db),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.StoreDriver)
	}
}

func (s *store) Close() error {
	return s.db.Close()
}
