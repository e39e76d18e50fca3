package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/learndocs-api/internal/config"
	"github.com/yourusername/learndocs-api/internal/domain/entity"
)

const facebookGraphVersion = "v12.0"

// FacebookProvider exchanges authorization codes against the Facebook
// Graph API. Unlike Google there is no signed ID token, so the profile
// comes from a /me call made with the freshly exchanged access token.
type FacebookProvider struct {
	cfg        config.OAuthProviderConfig
	httpClient *http.Client
}

func NewFacebookProvider(cfg config.OAuthProviderConfig) (*FacebookProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("facebook client id and secret are required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("facebook redirect url is required")
	}
	return &FacebookProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *FacebookProvider) Name() string {
	return entity.ProviderFacebook
}

func (p *FacebookProvider) AuthURL(state string) string {
	values := url.Values{}
	values.Set("client_id", p.cfg.ClientID)
	values.Set("redirect_uri", p.cfg.RedirectURL)
	values.Set("response_type", "code")
	values.Set("scope", "email,public_profile")
	values.Set("state", state)
	return fmt.Sprintf("https://www.facebook.com/%s/dialog/oauth?%s", facebookGraphVersion, values.Encode())
}

func (p *FacebookProvider) Exchange(ctx context.Context, code string) (*ProviderProfile, error) {
	accessToken, err := p.exchangeCodeForAccessToken(ctx, code)
	if err != nil {
		return nil, err
	}
	return p.fetchProfile(ctx, accessToken)
}

func (p *FacebookProvider) exchangeCodeForAccessToken(ctx context.Context, code string) (string, error) {
	values := url.Values{}
	values.Set("client_id", p.cfg.ClientID)
	values.Set("client_secret", p.cfg.ClientSecret)
	values.Set("redirect_uri", p.cfg.RedirectURL)
	values.Set("code", code)

	endpoint := fmt.Sprintf("https://graph.facebook.com/%s/oauth/access_token?%s", facebookGraphVersion, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create facebook token exchange request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("facebook token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: facebook token exchange status=%d body=%s", ErrProviderDenied, resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse facebook token exchange response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token not returned by facebook token exchange", ErrProviderDenied)
	}
	return payload.AccessToken, nil
}

func (p *FacebookProvider) fetchProfile(ctx context.Context, accessToken string) (*ProviderProfile, error) {
	values := url.Values{}
	values.Set("fields", "id,name,email,picture.type(large)")
	values.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("https://graph.facebook.com/%s/me?%s", facebookGraphVersion, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create facebook profile request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: facebook profile status=%d body=%s", ErrProviderDenied, resp.StatusCode, string(body))
	}

	var payload struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse facebook profile response: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: facebook profile has no id", ErrProviderDenied)
	}

	// Facebook only returns email when the user granted the permission,
	// so it may legitimately be empty here.
	return &ProviderProfile{
		Sub:           payload.ID,
		Email:         strings.TrimSpace(payload.Email),
		Name:          strings.TrimSpace(payload.Name),
		Picture:       payload.Picture.Data.URL,
		EmailVerified: payload.Email != "",
	}, nil
}
