package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safehaven/safehaven-api/internal/identity"
)

// UserStore persists accounts keyed by the identity provider's UID.
// FindUserByProviderUID returns (nil, nil) when no account exists.
type UserStore interface {
	FindUserByProviderUID(ctx context.Context, uid string) (*User, error)
	AddUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, uid string) error
}

type AuthService struct {
	store    UserStore
	verifier identity.Verifier
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
}

func NewAuthService(store UserStore, verifier identity.Verifier, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		store:    store,
		verifier: verifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
	}
}

// Authenticate verifies a bearer token and returns the matching account,
// creating it on first sight.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewUnauthorizedError("no token provided")
	}
	if s.verifier == nil {
		return nil, NewUnauthorizedError("identity verifier not configured")
	}
	id, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.log.Debug("token verification failed", zap.Error(err))
		return nil, NewUnauthorizedError("invalid or expired token")
	}
	return s.findOrCreate(ctx, id)
}

func (s *AuthService) findOrCreate(ctx context.Context, id *identity.Identity) (*User, error) {
	if id == nil || strings.TrimSpace(id.UID) == "" {
		return nil, NewUnauthorizedError("identity has no subject")
	}
	now := s.now()
	u, err := s.store.FindUserByProviderUID(ctx, id.UID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		updated := *u
		updated.LastLoginAt = now
		if id.Email != "" {
			updated.Email = id.Email
		}
		if id.Name != "" {
			updated.DisplayName = id.Name
		}
		if id.Picture != "" {
			updated.PhotoURL = id.Picture
		}
		if err := s.store.UpdateUser(ctx, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	created := &User{
		ID:          s.idGen(),
		ProviderUID: id.UID,
		Email:       id.Email,
		DisplayName: id.Name,
		PhotoURL:    id.Picture,
		CreatedAt:   now,
		LastLoginAt: now,
	}
	if err := s.store.AddUser(ctx, created); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", created.ID), zap.String("provider_uid", created.ProviderUID))
	return created, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, uid string, displayName, photoURL *string) (*User, error) {
	u, err := s.store.FindUserByProviderUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("user not found")
	}
	updated := *u
	if displayName != nil {
		updated.DisplayName = strings.TrimSpace(*displayName)
	}
	if photoURL != nil {
		updated.PhotoURL = strings.TrimSpace(*photoURL)
	}
	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, uid string) error {
	u, err := s.store.FindUserByProviderUID(ctx, uid)
	if err != nil {
		return err
	}
	if u == nil {
		return NewNotFoundError("user not found")
	}
	if err := s.store.DeleteUser(ctx, uid); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", u.ID))
	return nil
}
