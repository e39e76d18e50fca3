package service

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/learndocs-api/internal/config"
	"github.com/yourusername/learndocs-api/internal/domain/entity"
)

// GoogleProvider exchanges authorization codes against Google and
// verifies the returned ID token locally against Google's JWKS instead
// of a second round trip to the userinfo endpoint.
type GoogleProvider struct {
	cfg        config.OAuthProviderConfig
	httpClient *http.Client
	jwksMu     sync.RWMutex
	jwksKeys   map[string]*rsa.PublicKey
	jwksExpiry time.Time
}

func NewGoogleProvider(cfg config.OAuthProviderConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google client id and secret are required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("google redirect url is required")
	}
	return &GoogleProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *GoogleProvider) Name() string {
	return entity.ProviderGoogle
}

func (p *GoogleProvider) AuthURL(state string) string {
	values := url.Values{}
	values.Set("client_id", p.cfg.ClientID)
	values.Set("redirect_uri", p.cfg.RedirectURL)
	values.Set("response_type", "code")
	values.Set("scope", "openid email profile")
	values.Set("state", state)
	return "https://accounts.google.com/o/oauth2/v2/auth?" + values.Encode()
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*ProviderProfile, error) {
	idToken, err := p.exchangeCodeForIDToken(ctx, code)
	if err != nil {
		return nil, err
	}
	return p.verifyIDToken(ctx, idToken)
}

func (p *GoogleProvider) exchangeCodeForIDToken(ctx context.Context, code string) (string, error) {
	values := url.Values{}
	values.Set("code", code)
	values.Set("client_id", p.cfg.ClientID)
	values.Set("client_secret", p.cfg.ClientSecret)
	values.Set("redirect_uri", p.cfg.RedirectURL)
	values.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://oauth2.googleapis.com/token", strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create google token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("google token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: google token exchange status=%d body=%s", ErrProviderDenied, resp.StatusCode, string(body))
	}

	var payload struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse google token exchange response: %w", err)
	}
	if payload.IDToken == "" {
		return "", fmt.Errorf("%w: id_token not returned by google token exchange", ErrProviderDenied)
	}
	return payload.IDToken, nil
}

type googleIDTokenClaims struct {
	Email         string      `json:"email"`
	EmailVerified interface{} `json:"email_verified"`
	Name          string      `json:"name"`
	Picture       string      `json:"picture"`
	jwt.RegisteredClaims
}

type googleJWKSet struct {
	Keys []googleJWK `json:"keys"`
}

type googleJWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (p *GoogleProvider) verifyIDToken(ctx context.Context, idToken string) (*ProviderProfile, error) {
	claims := &googleIDTokenClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	token, err := parser.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("%w: missing kid header", ErrProviderDenied)
		}
		return p.getPublicKey(ctx, strings.TrimSpace(kid))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderDenied, err)
	}
	if token == nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid id token", ErrProviderDenied)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrProviderDenied)
	}
	if claims.Issuer != "accounts.google.com" && claims.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("%w: invalid issuer", ErrProviderDenied)
	}
	audMatched := false
	for _, aud := range claims.Audience {
		if aud == p.cfg.ClientID {
			audMatched = true
			break
		}
	}
	if !audMatched {
		return nil, fmt.Errorf("%w: audience mismatch", ErrProviderDenied)
	}

	emailVerified, _ := parseEmailVerifiedClaim(claims.EmailVerified)

	return &ProviderProfile{
		Sub:           strings.TrimSpace(claims.Subject),
		Email:         strings.TrimSpace(claims.Email),
		Name:          strings.TrimSpace(claims.Name),
		Picture:       strings.TrimSpace(claims.Picture),
		EmailVerified: emailVerified,
	}, nil
}

// parseEmailVerifiedClaim tolerates both the boolean and string forms
// Google has shipped for this claim.
func parseEmailVerifiedClaim(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return true, true
		case "false":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

func (p *GoogleProvider) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := time.Now()
	p.jwksMu.RLock()
	if key, ok := p.jwksKeys[kid]; ok && now.Before(p.jwksExpiry) {
		p.jwksMu.RUnlock()
		return key, nil
	}
	p.jwksMu.RUnlock()

	if err := p.refreshJWKS(ctx); err != nil {
		return nil, err
	}

	p.jwksMu.RLock()
	defer p.jwksMu.RUnlock()
	key, ok := p.jwksKeys[kid]
	if !ok || key == nil {
		return nil, fmt.Errorf("%w: jwks key not found", ErrProviderDenied)
	}
	return key, nil
}

func (p *GoogleProvider) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v3/certs", nil)
	if err != nil {
		return fmt.Errorf("failed to create google jwks request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch google jwks: %v", ErrProviderDenied, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: jwks status=%d", ErrProviderDenied, resp.StatusCode)
	}

	var set googleJWKSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode google jwks response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Kty != "RSA" || strings.TrimSpace(jwk.Kid) == "" {
			continue
		}
		pub, err := parseRSAPublicKey(jwk)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: no usable rsa keys in google jwks", ErrProviderDenied)
	}

	p.jwksMu.Lock()
	p.jwksKeys = keys
	p.jwksExpiry = time.Now().Add(time.Hour)
	p.jwksMu.Unlock()
	return nil
}

func parseRSAPublicKey(jwk googleJWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nBytes)
	eInt := 0
	for _, b := range eBytes {
		eInt = eInt<<8 + int(b)
	}
	if n.Sign() <= 0 || eInt <= 0 {
		return nil, fmt.Errorf("invalid rsa jwk")
	}
	return &rsa.PublicKey{N: n, E: eInt}, nil
}
