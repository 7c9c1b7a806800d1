package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safehaven/safehaven-api/internal/identity"
)

type authStubStore struct {
	users map[string]*User
	adds  int
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{users: map[string]*User{}}
}

func (s *authStubStore) FindUserByProviderUID(_ context.Context, uid string) (*User, error) {
	if u, ok := s.users[uid]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *authStubStore) AddUser(_ context.Context, u *User) error {
	if _, ok := s.users[u.ProviderUID]; ok {
		return NewConflictError("duplicate user")
	}
	copy := *u
	s.users[u.ProviderUID] = &copy
	s.adds++
	return nil
}

func (s *authStubStore) UpdateUser(_ context.Context, u *User) error {
	if _, ok := s.users[u.ProviderUID]; !ok {
		return NewNotFoundError("user not found")
	}
	copy := *u
	s.users[u.ProviderUID] = &copy
	return nil
}

func (s *authStubStore) DeleteUser(_ context.Context, uid string) error {
	delete(s.users, uid)
	return nil
}

type stubVerifier map[string]*identity.Identity

func (v stubVerifier) Verify(_ context.Context, token string) (*identity.Identity, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return nil, identity.ErrInvalidToken
}

func newTestAuthService(store UserStore, v identity.Verifier) *AuthService {
	svc := NewAuthService(store, v, nil)
	clock := time.Unix(1000, 0).UTC()
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	svc.idGen = func() string { return "user-1" }
	return svc
}

func TestAuthAuthenticateCreatesThenRefreshes(t *testing.T) {
	store := newAuthStubStore()
	v := stubVerifier{
		"good": {UID: "g-123", Email: "a@example.com", Name: "Ada"},
	}
	svc := newTestAuthService(store, v)
	ctx := context.Background()

	u, err := svc.Authenticate(ctx, "  good ")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if u.ID != "user-1" || u.ProviderUID != "g-123" || u.Email != "a@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	firstLogin := u.LastLoginAt

	v["good"].Name = ""
	v["good"].Picture = "https://example.com/p.png"
	again, err := svc.Authenticate(ctx, "good")
	if err != nil {
		t.Fatalf("second Authenticate returned error: %v", err)
	}
	if store.adds != 1 {
		t.Fatalf("expected one account, got %d adds", store.adds)
	}
	if !again.LastLoginAt.After(firstLogin) {
		t.Fatalf("last login not refreshed: %v vs %v", again.LastLoginAt, firstLogin)
	}
	if again.DisplayName != "Ada" || again.PhotoURL != "https://example.com/p.png" {
		t.Fatalf("profile merge wrong: %+v", again)
	}
	if !again.CreatedAt.Equal(u.CreatedAt) {
		t.Fatalf("createdAt changed")
	}
}

func TestAuthAuthenticateRejects(t *testing.T) {
	svc := newTestAuthService(newAuthStubStore(), stubVerifier{"nosub": {Email: "x@example.com"}})
	for _, tok := range []string{"", "   ", "bogus", "nosub"} {
		if _, err := svc.Authenticate(context.Background(), tok); !IsCode(err, ErrorUnauthorized) {
			t.Fatalf("token %q: expected unauthorized, got %v", tok, err)
		}
	}
	noVerifier := newTestAuthService(newAuthStubStore(), nil)
	if _, err := noVerifier.Authenticate(context.Background(), "tok"); !IsCode(err, ErrorUnauthorized) {
		t.Fatalf("expected unauthorized without verifier, got %v", err)
	}
}

type failingUserStore struct{ authStubStore }

func (failingUserStore) FindUserByProviderUID(context.Context, string) (*User, error) {
	return nil, errors.New("db down")
}

func TestAuthAuthenticateStoreError(t *testing.T) {
	svc := newTestAuthService(&failingUserStore{}, stubVerifier{"good": {UID: "u"}})
	if _, err := svc.Authenticate(context.Background(), "good"); err == nil || err.Error() != "db down" {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAuthUpdateProfileAndDelete(t *testing.T) {
	store := newAuthStubStore()
	svc := newTestAuthService(store, stubVerifier{"good": {UID: "g-1", Name: "Old"}})
	ctx := context.Background()
	if _, err := svc.Authenticate(ctx, "good"); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}

	name := "  New Name "
	u, err := svc.UpdateProfile(ctx, "g-1", &name, nil)
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if u.DisplayName != "New Name" || store.users["g-1"].DisplayName != "New Name" {
		t.Fatalf("profile not updated: %+v", u)
	}
	if _, err := svc.UpdateProfile(ctx, "missing", &name, nil); !IsCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}

	if err := svc.DeleteUser(ctx, "g-1"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, ok := store.users["g-1"]; ok {
		t.Fatalf("user still present after delete")
	}
	if err := svc.DeleteUser(ctx, "g-1"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found on second delete, got %v", err)
	}
}
