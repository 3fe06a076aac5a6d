package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/sessionbridge/internal/model"
)

// toMillis はSQLite保存用にUTCのミリ秒へ正規化する。
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// fromMillis はミリ秒からUTCのtime.Timeへ復元する。
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// SQLiteUserRepo はSQLiteを使用したユーザーリポジトリ。
// ローカル開発とテストで使用する。
type SQLiteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo はSQLiteUserRepoを生成する。
func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLiteUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	var createdAt, updatedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, image, provider, provider_id, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Image, &user.Provider, &user.ProviderID, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// Create はユーザーを作成する。
func (r *SQLiteUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, image, provider, provider_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Image, user.Provider, user.ProviderID,
		toMillis(user.CreatedAt), toMillis(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーの可変フィールドを上書きする。
func (r *SQLiteUserRepo) Update(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, image = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.Email, user.Image, toMillis(user.UpdatedAt), user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*SQLiteUserRepo)(nil)
