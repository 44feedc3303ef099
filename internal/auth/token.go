// Package auth turns a session token into an authenticated Identity.
// The auth collaborator signs the token at login; this service only
// verifies the signature and trusts the claims.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chat-sync-service/internal/models"
)

// ErrInvalidToken reports a missing, malformed, expired or badly
// signed token.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the session-token payload. The subject carries the
// identity id; the admin capability is resolved here, once, at
// session establishment.
type Claims struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 session tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier around a shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token and maps its claims onto an
// Identity.
func (v *Verifier) Verify(token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return models.Identity{}, ErrInvalidToken
	}

	return models.Identity{
		ID:       id,
		Username: claims.Username,
		Avatar:   claims.Avatar,
		Admin:    claims.Admin,
	}, nil
}

// Issue signs a token for an identity. Used by tooling and tests; in
// production the auth collaborator issues tokens with the same shape.
func (v *Verifier) Issue(identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: identity.Username,
		Avatar:   identity.Avatar,
		Admin:    identity.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
