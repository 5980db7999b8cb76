// Package session issues and verifies signed, time-limited session tokens
// carrying the identity of a user.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/assettrack/apiserver/types"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the signed payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

// Issuer signs tokens with HMAC-SHA256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is how long issued tokens stay valid.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) Issue(identity types.Identity) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: identity.ID,
		Name:   identity.Name,
		Email:  identity.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) Verify(tokenString string) (types.Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return types.Identity{}, ErrInvalidToken
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return types.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return types.Identity{}, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil || claims.Subject != claims.UserID.String() {
		return types.Identity{}, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}

	return types.Identity{ID: claims.UserID, Name: claims.Name, Email: claims.Email}, nil
}
