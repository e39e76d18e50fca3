package service

import "context"

// ProviderProfile is the normalized identity returned by a federation
// provider after a successful code exchange.
type ProviderProfile struct {
	Sub           string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// ProviderClient abstracts one OAuth provider. AuthURL builds the
// consent redirect carrying the state nonce, Exchange redeems the
// callback code for a verified profile.
type ProviderClient interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*ProviderProfile, error)
}
