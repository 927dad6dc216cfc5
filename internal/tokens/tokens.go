package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind tells what a token is good for. Confirmation and reset tokens are
// single-purpose links, access and refresh form the session pair.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReset        Kind = "reset"
	KindAccess       Kind = "access"
	KindRefresh      Kind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrWrongKind    = errors.New("wrong token kind")
)

type Claims struct {
	Kind Kind   `json:"kind"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into a user id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Codec issues and verifies signed tokens. Refresh tokens sign with their own
// secret so a leaked access secret cannot forge long-lived credentials.
type Codec struct {
	JWTSecret     []byte
	RefreshSecret []byte
}

func (c *Codec) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return c.RefreshSecret
	}
	return c.JWTSecret
}

// Issue creates a signed token for the subject that expires after ttl.
// Every token carries a fresh jti so revocable kinds can be denylisted.
func (c *Codec) Issue(subjectID uint, ttl time.Duration, kind Kind, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Kind: kind,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subjectID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secretFor(kind))
}

// Verify checks signature and expiry and that the token is of the expected
// kind. It never distinguishes malformed from unknown-signature tokens.
func (c *Codec) Verify(tokenStr string, want Kind) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secretFor(claims.Kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != want {
		return nil, ErrWrongKind
	}
	return &claims, nil
}

// Remaining reports how long the token stays valid, clamped at zero.
func (c *Claims) Remaining() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := time.Until(c.ExpiresAt.Time)
	if d < 0 {
		return 0
	}
	return d
}
