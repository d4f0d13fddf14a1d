package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/musichub/musichub/internal/clock"
	identitydomain "github.com/musichub/musichub/internal/identity/domain"
)

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(secret string, ttl time.Duration, clk clock.Clock) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: clk}, nil
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues a token for the principal and returns it with its expiry.
func (i *Issuer) Sign(principal identitydomain.Principal) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	claims := sessionClaims{
		Email: principal.Email,
		Role:  principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.SubjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token, returning the embedded principal.
// Malformed input of any shape yields ErrInvalidToken, never a panic.
func (i *Issuer) Verify(raw string) (*identitydomain.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, identitydomain.ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.clock.Now))
	if err != nil {
		return nil, identitydomain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, identitydomain.ErrInvalidToken
	}

	subjectID, err := identitydomain.ParseID(claims.Subject)
	if err != nil || subjectID == 0 {
		return nil, identitydomain.ErrInvalidToken
	}

	return &identitydomain.Principal{
		SubjectID: subjectID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}
