package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sessionbridge/internal/model"
	"github.com/hitoshi/sessionbridge/internal/repository"
	"github.com/hitoshi/sessionbridge/internal/security"
)

// Reconciler はプロバイダーのユーザー情報をusersレコードに反映する。
// 初回ログインで作成し、以降のログインでは可変フィールドを上書きする。
//
// 参照と書き込みはトランザクションで囲まない。同一ユーザーの同時初回ログインでは
// 後勝ちになるが、どちらの書き込みも同じプロフィールなので結果は変わらない。
type Reconciler struct {
	users     repository.UserRepository
	sanitizer security.ProfileSanitizer
	now       func() time.Time
}

// NewReconciler はReconcilerを生成する。
func NewReconciler(users repository.UserRepository, sanitizer security.ProfileSanitizer) *Reconciler {
	return &Reconciler{
		users:     users,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Reconcile はinfoに対応するユーザーを作成または更新し、保存後のユーザーを返す。
func (r *Reconciler) Reconcile(ctx context.Context, info *OAuthUserInfo) (*model.User, error) {
	existing, err := r.users.FindByID(ctx, info.ProviderUserID)
	if err != nil {
		return nil, model.NewStoreError("find user", err)
	}

	now := r.now()
	name := r.sanitizer.Name(info.Name)
	email := info.Email
	if email == "" {
		email = fallbackEmail(info.ProviderUserID, info.Provider)
	}
	image := r.sanitizer.AvatarURL(info.AvatarURL)

	if existing == nil {
		user := &model.User{
			ID:         info.ProviderUserID,
			Name:       name,
			Email:      email,
			Image:      image,
			Provider:   info.Provider,
			ProviderID: info.ProviderUserID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.users.Create(ctx, user); err != nil {
			return nil, model.NewStoreError("create user", err)
		}
		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("provider", user.Provider),
		)
		return user, nil
	}

	existing.Name = name
	existing.Email = email
	existing.Image = image
	existing.UpdatedAt = now
	if err := r.users.Update(ctx, existing); err != nil {
		return nil, model.NewStoreError("update user", err)
	}
	slog.Info("existing user logged in",
		slog.String("user_id", existing.ID),
		slog.String("provider", existing.Provider),
	)
	return existing, nil
}

// fallbackEmail はメールアドレスを返さないプロバイダー向けの合成アドレスを返す。
func fallbackEmail(providerUserID, provider string) string {
	return fmt.Sprintf("%s@%s.user", providerUserID, provider)
}
