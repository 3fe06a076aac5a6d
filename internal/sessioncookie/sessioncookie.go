// Package sessioncookie はセッションCookieの読み書きを一箇所にまとめる。
//
// Cookie名はフレームワーク管理のログイン経路と共有するため変更できない。
// 同じトークンを通常名と__Secure-付きの名前の両方に書き込む。
package sessioncookie

import (
	"net/http"
	"strings"
	"time"
)

// Cookie名
const (
	PlainName  = "next-auth.session-token"
	SecureName = "__Secure-next-auth.session-token"
)

// Parse はCookieヘッダーの値を一度だけ解析し、名前から値へのmapを返す。
// 不正なペアは読み飛ばす。同名が複数ある場合は先頭を採用する。
func Parse(header string) map[string]string {
	values := make(map[string]string)
	if strings.TrimSpace(header) == "" {
		return values
	}
	req := &http.Request{Header: http.Header{"Cookie": {header}}}
	for _, c := range req.Cookies() {
		if _, exists := values[c.Name]; !exists {
			values[c.Name] = c.Value
		}
	}
	return values
}

// TokenFromHeader はCookieヘッダーからセッショントークンを取り出す。
// 両方の名前がある場合は__Secure-付きを優先する。空の値は無いものとして扱う。
func TokenFromHeader(header string) (string, bool) {
	values := Parse(header)
	for _, name := range []string{SecureName, PlainName} {
		if v := strings.TrimSpace(values[name]); v != "" {
			return v, true
		}
	}
	return "", false
}

// Header はリクエストの全Cookieヘッダー行を1つのヘッダー値に連結する。
// Header.Getは先頭行しか返さないため、Cookie行が複数あっても取りこぼさない。
func Header(r *http.Request) string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Header.Values("Cookie"), "; ")
}

// Write は2つのセッションCookieに同じトークンを設定する。
func Write(w http.ResponseWriter, token string, expires time.Time, domain string) {
	for _, c := range cookies(token, domain) {
		c.Expires = expires
		http.SetCookie(w, c)
	}
}

// Clear は2つのセッションCookieを失効させる（Max-Age=0）。
func Clear(w http.ResponseWriter, domain string) {
	for _, c := range cookies("", domain) {
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func cookies(value, domain string) []*http.Cookie {
	return []*http.Cookie{
		{
			Name:     PlainName,
			Value:    value,
			Path:     "/",
			Domain:   domain,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		{
			Name:     SecureName,
			Value:    value,
			Path:     "/",
			Domain:   domain,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}
