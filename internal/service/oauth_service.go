package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	"github.com/yourusername/learndocs-api/internal/domain/repository"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
	"github.com/yourusername/learndocs-api/pkg/auth"
)

const oauthStateTTL = 10 * time.Minute

// OAuthService runs the redirect-based federation flow for the
// configured providers. Accounts are matched on the provider subject id
// only, never merged with an existing local account by email.
type OAuthService struct {
	userRepo     repository.UserRepository
	identityRepo repository.UserIdentityRepository
	stateRepo    repository.OAuthStateRepository
	jwtService   *auth.JWTService
	providers    map[string]ProviderClient
}

func NewOAuthService(
	userRepo repository.UserRepository,
	identityRepo repository.UserIdentityRepository,
	stateRepo repository.OAuthStateRepository,
	jwtService *auth.JWTService,
	providers []ProviderClient,
) (*OAuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if identityRepo == nil {
		return nil, fmt.Errorf("identity repository is required")
	}
	if stateRepo == nil {
		return nil, fmt.Errorf("state repository is required")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("jwt service is required")
	}

	byName := make(map[string]ProviderClient, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		byName[p.Name()] = p
	}

	return &OAuthService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		stateRepo:    stateRepo,
		jwtService:   jwtService,
		providers:    byName,
	}, nil
}

// BeginAuth issues a state nonce and returns the provider consent URL
// the client should be redirected to.
func (s *OAuthService) BeginAuth(provider string) (string, error) {
	client, ok := s.providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return "", fmt.Errorf("%w: unknown provider %q", apperrors.ErrValidation, provider)
	}

	state := uuid.NewString()
	if err := s.stateRepo.Save(state, client.Name(), oauthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return client.AuthURL(state), nil
}

// HandleCallback consumes the state nonce, redeems the code, and
// resolves the provider identity to a session. A subject seen before
// logs into its existing account; a new subject gets a fresh account
// even when the provider email matches a local one.
func (s *OAuthService) HandleCallback(ctx context.Context, provider, state, code string) (*entity.User, string, error) {
	client, ok := s.providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown provider %q", apperrors.ErrValidation, provider)
	}
	if state == "" || code == "" {
		return nil, "", fmt.Errorf("%w: state and code are required", apperrors.ErrValidation)
	}

	issuedFor, err := s.stateRepo.Consume(state)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, ErrOAuthStateReused)
		}
		return nil, "", err
	}
	if issuedFor != client.Name() {
		return nil, "", fmt.Errorf("%w: state was issued for another provider", apperrors.ErrUnauthorized)
	}

	profile, err := client.Exchange(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if profile.Sub == "" {
		return nil, "", fmt.Errorf("%w: provider returned no subject", ErrProviderDenied)
	}

	identity, err := s.identityRepo.GetByProviderSub(client.Name(), profile.Sub)
	if err == nil {
		user, userErr := s.userRepo.GetByID(identity.UserID)
		if userErr != nil {
			return nil, "", userErr
		}
		if err := s.userRepo.UpdateLastLogin(user.ID, time.Now()); err != nil {
			log.Printf("[OAuthService] Failed to update last login for user ID=%d: %v", user.ID, err)
		}
		token, tokenErr := s.jwtService.GenerateToken(user)
		if tokenErr != nil {
			return nil, "", tokenErr
		}
		return user, token, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}

	user, err := s.createFederatedUser(client.Name(), profile)
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[OAuthService] Federated user created: ID=%d, provider=%s", user.ID, client.Name())
	return user, token, nil
}

// createFederatedUser creates a passwordless account for a first-time
// provider subject. When the provider email is absent or already taken
// by another account the user gets a synthetic address, and the real
// provider email is kept on the identity record.
func (s *OAuthService) createFederatedUser(provider string, profile *ProviderProfile) (*entity.User, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		email = syntheticEmail(provider, profile.Sub)
	} else {
		_, err := s.userRepo.GetByEmail(email)
		if err == nil {
			email = syntheticEmail(provider, profile.Sub)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	userName := strings.TrimSpace(profile.Name)
	if userName == "" {
		userName = fmt.Sprintf("%s user", provider)
	}

	picture := profile.Picture
	if picture == "" {
		picture = initialsAvatarURL(userName)
	}

	user := &entity.User{
		UserName:       userName,
		Email:          email,
		IsVerified:     profile.EmailVerified,
		Role:           entity.RoleUser,
		AuthProvider:   provider,
		ProfilePicture: picture,
	}

	if err := s.userRepo.CreateWithProfile(user, &entity.Profile{}); err != nil {
		return nil, fmt.Errorf("failed to create federated user: %w", err)
	}

	identity := &entity.UserIdentity{
		UserID:        user.ID,
		Provider:      provider,
		ProviderSub:   profile.Sub,
		ProviderEmail: normalizeEmail(profile.Email),
	}
	if err := s.identityRepo.Create(identity); err != nil {
		return nil, fmt.Errorf("failed to create provider identity: %w", err)
	}

	return user, nil
}

func syntheticEmail(provider, sub string) string {
	return fmt.Sprintf("%s@%s.local", sub, provider)
}
