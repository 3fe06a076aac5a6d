// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizer はIdPから受け取ったプロフィール情報を保存前に正規化する。
// 表示名はbluemondayのStrictPolicyでマークアップを除去し、
// アバターURLはhttpsの絶対URLのみを通過させる。
package security

import (
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// maxNameLength は表示名として保存する最大文字数（rune単位）。
const maxNameLength = 100

// ProfileSanitizer はプロフィール項目のサニタイズ機能のインターフェースを定義する。
type ProfileSanitizer interface {
	// Name は表示名からHTMLタグを除去し、前後の空白を落として最大100文字に切り詰める。
	Name(raw string) string
	// AvatarURL はhttpsスキームの絶対URLのみを返す。それ以外は空文字列を返す。
	AvatarURL(raw string) string
}

// profileSanitizer はProfileSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerの新しいインスタンスを生成する。
func NewProfileSanitizer() ProfileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Name は表示名をプレーンテキストに正規化する。
func (s *profileSanitizer) Name(raw string) string {
	// StrictPolicyは&等をエスケープするため、保存用に戻す
	name := html.UnescapeString(s.policy.Sanitize(raw))
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) > maxNameLength {
		runes := []rune(name)
		name = string(runes[:maxNameLength])
	}
	return name
}

// AvatarURL はアバター画像URLを検証する。
func (s *profileSanitizer) AvatarURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "https" || u.Host == "" {
		return ""
	}
	return u.String()
}
