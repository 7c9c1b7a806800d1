package api

import (
	"context"
	"strings"

	"github.com/safehaven/safehaven-api/internal/services"
)

type userStoreAdapter struct {
	store Store
}

func NewUserStore(store Store) services.UserStore {
	return &userStoreAdapter{store: store}
}

// NewUserLookup resolves story authors and testimonial admins by internal ID.
func NewUserLookup(store Store) services.UserLookup {
	return &userStoreAdapter{store: store}
}

func (a *userStoreAdapter) FindUserByID(ctx context.Context, id string) (*services.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	return a.store.GetUserByID(ctx, id)
}

func (a *userStoreAdapter) FindUserByProviderUID(ctx context.Context, uid string) (*services.User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, nil
	}
	return a.store.GetUserByProviderUID(ctx, uid)
}

func (a *userStoreAdapter) AddUser(ctx context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	return a.store.AddUser(ctx, u)
}

func (a *userStoreAdapter) UpdateUser(ctx context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	ok, err := a.store.UpdateUser(ctx, u)
	if err != nil {
		return err
	}
	if !ok {
		return services.NewNotFoundError("user not found")
	}
	return nil
}

func (a *userStoreAdapter) DeleteUser(ctx context.Context, uid string) error {
	ok, err := a.store.DeleteUser(ctx, uid)
	if err != nil {
		return err
	}
	if !ok {
		return services.NewNotFoundError("user not found")
	}
	return nil
}

var (
	_ services.UserStore  = (*userStoreAdapter)(nil)
	_ services.UserLookup = (*userStoreAdapter)(nil)
)
