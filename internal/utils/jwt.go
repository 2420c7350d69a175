package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for stored refresh tokens
	"encoding/hex"  // hex encoding of digests
	"errors"        // sentinel errors for token validation failures
	"time"          // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token scopes.  Every JWT issued by this service carries a "scope" claim
// naming the single use it is valid for.  ParseToken enforces the scope so
// a refresh token is never accepted where an access token is expected and
// vice versa.
const (
	ScopeAccess  = "access_token"  // short-lived API credential
	ScopeRefresh = "refresh_token" // long-lived credential exchanged for a new pair
	ScopeEmail   = "email_token"   // one-shot email confirmation credential
)

// ErrInvalidToken is returned when a token fails signature verification,
// is expired, or carries the wrong scope for the requested use.  Callers
// map it to an authentication failure; the reasons are deliberately not
// distinguished in the error value.
var ErrInvalidToken = errors.New("invalid token")

// Token pairs a serialized JWT with its expiry so handlers can report both
// to the client.
type Token struct {
	Raw string    // the serialized JWT string
	Exp time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT proving identity on API
// calls.  The subject is the user's email; the role claim lets the
// authorization gate decide without a database read.  TTL is minutes-scale.
func NewAccessToken(secret, email, role string, ttlMin int) (Token, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   email,
		"role":  role,
		"scope": ScopeAccess,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Raw: signed, Exp: exp}, nil
}

// NewRefreshToken builds the days-scale token exchanged for a new pair.
// Only one refresh token per user is valid at a time: the server stores
// the digest of the latest one (see HashRefreshRaw) and rejects the rest.
func NewRefreshToken(secret, email string, ttlDays int) (Token, error) {
	return newScopedToken(secret, email, ScopeRefresh, ttlDays)
}

// NewEmailToken builds the confirmation token embedded in the signup email.
// The TTL is generous because mail round-trips can take days.
func NewEmailToken(secret, email string, ttlDays int) (Token, error) {
	return newScopedToken(secret, email, ScopeEmail, ttlDays)
}

func newScopedToken(secret, email, scope string, ttlDays int) (Token, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":   email,
		"scope": scope,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Raw: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry, checks that the scope claim
// equals wantScope and returns the subject email.  Any failure comes back
// as ErrInvalidToken.
func ParseToken(secret, raw, wantScope string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC; otherwise an
		// attacker could present an unsigned ("none") token.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if scope, _ := claims["scope"].(string); scope != wantScope {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// RoleFromToken extracts the role claim from a verified access token.  It
// shares the verification path with ParseToken and fails the same way.
func RoleFromToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return "", ErrInvalidToken
	}
	return role, nil
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as a hex
// string.  Only the hash is stored on the user row, so a leaked database
// dump cannot be replayed to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
