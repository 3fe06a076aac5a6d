package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/sessionbridge/internal/model"
)

// SQLiteSessionRepo はSQLiteを使用したセッションリポジトリ。
type SQLiteSessionRepo struct {
	db *sql.DB
}

// NewSQLiteSessionRepo はSQLiteSessionRepoを生成する。
func NewSQLiteSessionRepo(db *sql.DB) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *SQLiteSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_token, user_id, expires) VALUES (?, ?, ?)`,
		session.Token, session.UserID, toMillis(session.Expires),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByToken は指定トークンのセッションを取得する。見つからない場合はnilを返す。
func (r *SQLiteSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	session := &model.Session{}
	var expires int64
	err := r.db.QueryRowContext(ctx,
		`SELECT session_token, user_id, expires FROM sessions WHERE session_token = ?`,
		token,
	).Scan(&session.Token, &session.UserID, &expires)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session.Expires = fromMillis(expires)
	return session, nil
}

// DeleteByToken は指定トークンのセッションを削除する。
func (r *SQLiteSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredBefore はexpiresがcutoff以前のセッションを削除する。
func (r *SQLiteSessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires <= ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ SessionRepository = (*SQLiteSessionRepo)(nil)
var _ SessionPurger = (*SQLiteSessionRepo)(nil)
