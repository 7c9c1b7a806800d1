// Package identity verifies bearer credentials issued by an external identity
// provider and decodes them into an Identity.
package identity

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the decoded subject of a verified token.
type Identity struct {
	UID           string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
