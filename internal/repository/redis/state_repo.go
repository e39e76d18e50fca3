package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
)

const stateKeyPrefix = "oauth:state:"

// StateRepo implements repository.OAuthStateRepository on Redis. Nonces
// expire on their own through key TTLs, so there is no sweeper to run.
type StateRepo struct {
	client redis.UniversalClient
	ctx    context.Context
}

// NewStateRepo creates a new OAuth state repository and returns an error
// when the client is missing.
func NewStateRepo(client redis.UniversalClient) (*StateRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for StateRepo")
	}
	return &StateRepo{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// Save stores the state nonce with the provider it was issued for.
func (r *StateRepo) Save(state, provider string, ttl time.Duration) error {
	return r.client.Set(r.ctx, stateKeyPrefix+state, provider, ttl).Err()
}

// Consume atomically reads and deletes the nonce, returning the provider
// it was issued for. A missing or expired nonce is ErrNotFound, so a
// replayed callback fails the same way a forged one does.
func (r *StateRepo) Consume(state string) (string, error) {
	provider, err := r.client.GetDel(r.ctx, stateKeyPrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return provider, nil
}
