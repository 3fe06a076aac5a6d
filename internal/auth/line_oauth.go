package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/sessionbridge/internal/model"
	"golang.org/x/oauth2"
)

// ProviderLine はLINE Loginのプロバイダー名。
const ProviderLine = "line"

const (
	defaultLineAuthURL    = "https://access.line.me/oauth2/v2.1/authorize"
	defaultLineTokenURL   = "https://api.line.me/oauth2/v2.1/token"
	defaultLineProfileURL = "https://api.line.me/v2/profile"
)

// LineOAuthConfig はLINE Loginプロバイダーの設定。
type LineOAuthConfig struct {
	ChannelID     string
	ChannelSecret string

	// テスト用にオーバーライド可能なURL
	AuthURL    string
	TokenURL   string
	ProfileURL string

	HTTPClient *http.Client
}

// LineOAuthProvider はLINE Login v2.1による認証を提供する。
type LineOAuthProvider struct {
	client     *oauthClient
	profileURL string
}

// NewLineOAuthProvider はLineOAuthProviderを生成する。
func NewLineOAuthProvider(config LineOAuthConfig) *LineOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultLineAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultLineTokenURL
	}
	if config.ProfileURL == "" {
		config.ProfileURL = defaultLineProfileURL
	}

	oauthConfig := oauth2.Config{
		ClientID:     config.ChannelID,
		ClientSecret: config.ChannelSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  config.AuthURL,
			TokenURL: config.TokenURL,
			// LINEはclient_id/client_secretをフォームパラメータで受け取る
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"profile", "openid"},
	}

	return &LineOAuthProvider{
		client:     newOAuthClient(ProviderLine, oauthConfig, config.HTTPClient),
		profileURL: config.ProfileURL,
	}
}

// Name はプロバイダー名を返す。
func (p *LineOAuthProvider) Name() string {
	return ProviderLine
}

// GetLoginURL はLINE Loginの認証URLを生成する。
func (p *LineOAuthProvider) GetLoginURL(state, redirectURI string) string {
	return p.client.authCodeURL(state, redirectURI)
}

// lineProfile はLINEのプロフィールエンドポイントのレスポンス。
type lineProfile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
	Email       string `json:"email"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、プロフィールを取得する。
func (p *LineOAuthProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*OAuthUserInfo, error) {
	// 1. 認可コードをアクセストークンに交換
	accessToken, err := p.client.exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	// 2. アクセストークンでプロフィールを取得
	var profile lineProfile
	if err := p.client.fetchJSON(ctx, p.profileURL, accessToken, &profile); err != nil {
		return nil, err
	}

	if profile.UserID == "" {
		return nil, model.NewUpstreamProviderError("line profile fetch", errors.New("empty userId in profile response"))
	}

	return &OAuthUserInfo{
		ProviderUserID: profile.UserID,
		Name:           profile.DisplayName,
		Email:          profile.Email,
		AvatarURL:      profile.PictureURL,
		Provider:       ProviderLine,
	}, nil
}

// compile-time interface check
var _ OAuthProvider = (*LineOAuthProvider)(nil)
