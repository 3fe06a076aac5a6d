package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/sessionbridge/internal/model"
	"golang.org/x/oauth2"
)

// ProviderGoogle はGoogle OAuthのプロバイダー名。
const ProviderGoogle = "google"

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleOAuthConfig はGoogle OAuthプロバイダーの設定。
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

// GoogleOAuthProvider はGoogle OAuth 2.0による認証を提供する。
type GoogleOAuthProvider struct {
	client      *oauthClient
	userInfoURL string
}

// NewGoogleOAuthProvider はGoogleOAuthProviderを生成する。
func NewGoogleOAuthProvider(config GoogleOAuthConfig) *GoogleOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}

	oauthConfig := oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   config.AuthURL,
			TokenURL:  config.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"openid", "email", "profile"},
	}

	return &GoogleOAuthProvider{
		client:      newOAuthClient(ProviderGoogle, oauthConfig, config.HTTPClient),
		userInfoURL: config.UserInfoURL,
	}
}

// Name はプロバイダー名を返す。
func (p *GoogleOAuthProvider) Name() string {
	return ProviderGoogle
}

// GetLoginURL はGoogle OAuthの認証URLを生成する。
// スコープにはemail, profileを含む。
func (p *GoogleOAuthProvider) GetLoginURL(state, redirectURI string) string {
	return p.client.authCodeURL(state, redirectURI, oauth2.AccessTypeOnline)
}

// googleUserInfo はGoogleのユーザー情報エンドポイントのレスポンス。
type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*OAuthUserInfo, error) {
	accessToken, err := p.client.exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	var userInfo googleUserInfo
	if err := p.client.fetchJSON(ctx, p.userInfoURL, accessToken, &userInfo); err != nil {
		return nil, err
	}

	if userInfo.Sub == "" {
		return nil, model.NewUpstreamProviderError("google profile fetch", errors.New("empty sub in user info response"))
	}

	return &OAuthUserInfo{
		ProviderUserID: userInfo.Sub,
		Name:           userInfo.Name,
		Email:          userInfo.Email,
		AvatarURL:      userInfo.Picture,
		Provider:       ProviderGoogle,
	}, nil
}

// compile-time interface check
var _ OAuthProvider = (*GoogleOAuthProvider)(nil)
