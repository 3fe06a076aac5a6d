// Package auth はOAuth認可コードフローとユーザー情報の照合を提供する。
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hitoshi/sessionbridge/internal/model"
	"golang.org/x/oauth2"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Name           string
	Email          string // プロバイダーが返さない場合は空
	AvatarURL      string
	Provider       string // "line", "google"
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// redirect_uriはリクエストごとに決まるため呼び出し側から渡す。
type OAuthProvider interface {
	// Name はプロバイダー名（ルートパスとusers.providerに使う）を返す。
	Name() string
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state, redirectURI string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code, redirectURI string) (*OAuthUserInfo, error)
}

// oauthClient はプロバイダー共通のトークン交換とプロフィール取得を行う。
type oauthClient struct {
	provider   string
	config     oauth2.Config
	httpClient *http.Client
}

func newOAuthClient(provider string, config oauth2.Config, httpClient *http.Client) *oauthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &oauthClient{provider: provider, config: config, httpClient: httpClient}
}

// configFor はredirect_uriを設定したoauth2.Configのコピーを返す。
func (c *oauthClient) configFor(redirectURI string) *oauth2.Config {
	cfg := c.config
	cfg.RedirectURL = redirectURI
	return &cfg
}

// authCodeURL は認可エンドポイントのURLを生成する。
func (c *oauthClient) authCodeURL(state, redirectURI string, opts ...oauth2.AuthCodeOption) string {
	return c.configFor(redirectURI).AuthCodeURL(state, opts...)
}

// exchange は認可コードをアクセストークンに交換する。
// トークンエンドポイントの失敗はUpstreamProviderErrorとして返す。
func (c *oauthClient) exchange(ctx context.Context, code, redirectURI string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.configFor(redirectURI).Exchange(ctx, code)
	if err != nil {
		return "", model.NewUpstreamProviderError(c.provider+" token exchange", err)
	}
	return token.AccessToken, nil
}

// fetchJSON はBearerトークン付きでGETし、レスポンスJSONをdstにデコードする。
// 2xx以外はUpstreamProviderErrorとして返す。
func (c *oauthClient) fetchJSON(ctx context.Context, endpoint, accessToken string, dst any) error {
	op := c.provider + " profile fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.NewUpstreamProviderError(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamProviderError(op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewUpstreamProviderError(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.NewUpstreamProviderError(op, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return model.NewUpstreamProviderError(op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}
