// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sessionbridge/internal/model"
	"github.com/hitoshi/sessionbridge/internal/sessioncookie"
)

// AuthServiceInterface は認証ハンドラーが必要とするログインフローのインターフェース。
type AuthServiceInterface interface {
	HasProvider(provider string) bool
	GetLoginURL(provider, state, redirectURI string) (string, error)
	HandleCallback(ctx context.Context, provider, code, redirectURI string) (*model.Session, error)
}

// SessionResolver はCookieヘッダーから現在のユーザーを解決する。
type SessionResolver interface {
	Resolve(ctx context.Context, cookieHeader string) (*model.SessionView, error)
}

// SessionRevoker はCookieヘッダーのセッションを破棄する。
type SessionRevoker interface {
	Revoke(ctx context.Context, cookieHeader string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// BaseURL はredirect_uriの基点。空の場合はリクエストから組み立てる。
	BaseURL       string
	CookieDomain  string
	PostLoginPath string
}

// AuthHandler はログイン・セッション確認・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	resolver SessionResolver
	revoker  SessionRevoker
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, resolver SessionResolver, revoker SessionRevoker, config AuthHandlerConfig) *AuthHandler {
	if config.PostLoginPath == "" {
		config.PostLoginPath = "/booking"
	}
	return &AuthHandler{
		service:  service,
		resolver: resolver,
		revoker:  revoker,
		config:   config,
	}
}

// SignIn はOAuthフローを開始する。
// GET /api/auth/signin/{provider}
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !h.service.HasProvider(provider) {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	redirectURI, err := h.redirectURI(r, provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	loginURL, err := h.service.GetLoginURL(provider, state, redirectURI)
	if err != nil {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, loginURL, http.StatusFound)
}

// Callback はOAuthコールバックを処理し、セッションCookieを設定してリダイレクトする。
// GET /api/auth/callback/{provider}?code=xxx
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !h.service.HasProvider(provider) {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	// 1. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	// 2. redirect_uriの決定（認可リクエスト時と同じ値が必要）
	redirectURI, err := h.redirectURI(r, provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 3. コード交換 → ユーザー照合 → セッション発行
	session, err := h.service.HandleCallback(r.Context(), provider, code, redirectURI)
	if err != nil {
		status, msg := statusForError(err)
		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "oauth callback failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		http.Error(w, msg, status)
		return
	}

	// 4. セッションCookieを2つとも設定
	sessioncookie.Write(w, session.Token, session.Expires, h.config.CookieDomain)

	// 5. ログイン後の画面へリダイレクト
	http.Redirect(w, r, h.config.PostLoginPath, http.StatusFound)
}

// sessionUser は/api/auth/sessionのuserフィールド。
type sessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

// sessionResponse は/api/auth/sessionのレスポンス。未ログイン時はuserがnull。
type sessionResponse struct {
	User    *sessionUser `json:"user"`
	Expires string       `json:"expires,omitempty"`
}

// Session は現在のセッションのユーザー情報を返す。
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	view, err := h.resolver.Resolve(r.Context(), sessioncookie.Header(r))
	if err != nil {
		slog.Error("failed to resolve session", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := sessionResponse{}
	if view != nil {
		resp.User = &sessionUser{
			ID:    view.ID,
			Name:  view.Name,
			Email: view.Email,
			Image: view.Image,
		}
		resp.Expires = view.Expires.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout はセッションを破棄し、セッションCookieを失効させる。
// レコード削除の成否にかかわらず常に成功を返す。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.revoker.Revoke(r.Context(), sessioncookie.Header(r))

	sessioncookie.Clear(w, h.config.CookieDomain)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// redirectURI はプロバイダーのコールバックURLを組み立てる。
// 基点はBASE_URL、Originヘッダー、リクエストのHostの順に決める。
func (h *AuthHandler) redirectURI(r *http.Request, provider string) (string, error) {
	base := h.config.BaseURL
	if base == "" {
		base = originBase(r.Header.Get("Origin"))
	}
	if base == "" && r.Host != "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	if base == "" {
		return "", model.ErrMissingRedirectBase
	}
	return base + "/api/auth/callback/" + provider, nil
}

// originBase はOriginヘッダーが絶対URL（http/https）の場合のみ基点として返す。
// "null"などの不透明なOriginは空文字を返す。
func originBase(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// statusForError はエラー分類からHTTPステータスとレスポンス文言を決める。
func statusForError(err error) (int, string) {
	switch model.KindOf(err) {
	case model.KindClientInput:
		if errors.Is(err, model.ErrMissingCode) {
			return http.StatusBadRequest, "missing authorization code"
		}
		return http.StatusBadRequest, "bad request"
	case model.KindUpstreamProvider:
		return http.StatusBadGateway, "authentication provider error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// generateState はOAuthのstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
