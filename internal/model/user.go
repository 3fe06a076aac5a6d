// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDはプロバイダー側のユーザーID（users/{providerUserId}）をそのまま使う。
type User struct {
	ID         string
	Name       string
	Email      string
	Image      string
	Provider   string // "line", "google" 等
	ProviderID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session はユーザーのログインセッションを表す。
// 有効性は読み出し時にExpiresと現在時刻を比較して判定する。
type Session struct {
	Token   string
	UserID  string
	Expires time.Time
}

// IsExpired はnow時点でセッションが期限切れかどうかを返す。
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.Expires)
}

// SessionView はセッション確認エンドポイントに返すユーザーの射影。
type SessionView struct {
	ID      string
	Name    string
	Email   string
	Image   string
	Expires time.Time
}
