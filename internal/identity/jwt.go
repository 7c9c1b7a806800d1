package identity

import (
	"context"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier accepts HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Sign issues a token for id that expires after ttl.
func (v *JWTVerifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		UID:           id.UID,
		Email:         id.Email,
		Name:          id.Name,
		Picture:       id.Picture,
		EmailVerified: id.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func (v *JWTVerifier) Verify(_ context.Context, tok string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (interface{}, error) { return v.secret, nil }, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	uid := c.UID
	if uid == "" {
		uid = c.Subject
	}
	if uid == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{UID: uid, Email: c.Email, Name: c.Name, Picture: c.Picture, EmailVerified: c.EmailVerified}, nil
}
