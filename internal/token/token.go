// Package token mints and validates the signed bearer tokens that represent
// an authenticated session. Tokens are self-describing JWTs: the server keeps
// no session row, only a revocation denylist consulted on each request.
package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/keygate/keygate/internal/shared"
)

// Claims is the identity carried by an issued token.
type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// Issuer signs and validates bearer tokens with an HMAC-SHA256 key.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer constructs an Issuer. ttl bounds the lifetime of every token.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL reports the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the user expiring at now + TTL. The jti claim is
// the handle the revocation denylist keys on.
func (i *Issuer) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Validate parses and verifies a raw token. Malformed, forged and expired
// tokens all report shared.ErrInvalidToken; the caller never learns which.
func (i *Issuer) Validate(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, shared.ErrInvalidToken
	}
	registered, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, shared.ErrInvalidToken
	}
	userID, err := strconv.ParseInt(registered.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, shared.ErrInvalidToken
	}
	return &Claims{
		UserID:    userID,
		TokenID:   registered.ID,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
