package repository

import "time"

// OAuthStateRepository stores short-lived OAuth state nonces keyed by the
// state value, holding the provider name they were issued for. Consuming
// a state removes it, so each nonce authorizes exactly one callback.
type OAuthStateRepository interface {
	Save(state, provider string, ttl time.Duration) error
	Consume(state string) (provider string, err error)
}
