package identity

import (
	"context"
	"fmt"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

// GoogleVerifier checks Google-signed ID tokens against the configured client IDs.
type GoogleVerifier struct {
	audience []string
	verifier googleAuthIDTokenVerifier.Verifier
}

func NewGoogleVerifier(clientIDs []string) *GoogleVerifier {
	return &GoogleVerifier{audience: clientIDs}
}

func (g *GoogleVerifier) Verify(_ context.Context, tok string) (*Identity, error) {
	if len(g.audience) == 0 {
		return nil, fmt.Errorf("%w: no client ids configured", ErrInvalidToken)
	}
	if err := g.verifier.VerifyIDToken(tok, g.audience); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, err := googleAuthIDTokenVerifier.Decode(tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFromClaims(claims), nil
}

func identityFromClaims(c *googleAuthIDTokenVerifier.ClaimSet) *Identity {
	return &Identity{
		UID:           c.Sub,
		Email:         c.Email,
		Name:          c.Name,
		Picture:       c.Picture,
		EmailVerified: c.EmailVerified,
	}
}
