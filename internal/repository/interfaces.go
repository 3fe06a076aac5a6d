// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/sessionbridge/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーの可変フィールド（name, email, image, updated_at）を上書きする。
	// created_atとidentityは変更しない。
	Update(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンのセッションを取得する。見つからない場合はnilを返す。
	// 期限切れのレコードもそのまま返す。有効性の判定は呼び出し側で行う。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteByToken は指定トークンのセッションを削除する。
	// レコードが存在しない場合もエラーにしない。
	DeleteByToken(ctx context.Context, token string) error
}

// SessionPurger は期限切れセッションの一括削除インターフェース。
// 運用者が明示的に実行する場合にのみ使用する。
type SessionPurger interface {
	// DeleteExpiredBefore はexpiresがcutoff以前のセッションを削除し、削除件数を返す。
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
