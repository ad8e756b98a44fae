// Package auth issues and verifies session and password-reset tokens.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PracticalMetal/major-notice/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenRevoked = errors.New("token revoked")
	ErrNoSecret     = errors.New("jwt secret is required")
)

const (
	tokenTypeSession = "session"
	tokenTypeReset   = "reset"
)

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims carried by every token this package signs.
type Claims struct {
	Organization string `json:"org,omitempty"`
	Role         string `json:"role,omitempty"`
	Type         string `json:"typ"`
	// PasswordFingerprint ties a reset token to the hash it was issued against.
	PasswordFingerprint string `json:"pwf,omitempty"`
	jwt.RegisteredClaims
}

// UID returns the subject claim.
func (c *Claims) UID() string { return c.Subject }

// Tokens signs and verifies HS256 tokens and tracks revoked sessions.
type Tokens struct {
	secret   []byte
	ttl      time.Duration
	resetTTL time.Duration
	revoked  *Revocations
	now      func() time.Time
}

// NewTokens builds a token service. ttl bounds sessions, resetTTL bounds reset tokens.
func NewTokens(secret string, ttl, resetTTL time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Tokens{
		secret:   []byte(secret),
		ttl:      ttl,
		resetTTL: resetTTL,
		revoked:  NewRevocations(),
		now:      time.Now,
	}, nil
}

// Issue signs a session token for u.
func (t *Tokens) Issue(u model.User) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		Organization: u.Organization,
		Role:         u.Role,
		Type:         tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := t.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify parses a session token and rejects revoked or non-session tokens.
func (t *Tokens) Verify(token string) (*Claims, error) {
	claims, err := t.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeSession {
		return nil, ErrInvalidToken
	}
	if t.revoked.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke invalidates a session token until it would have expired anyway.
func (t *Tokens) Revoke(token string) error {
	claims, err := t.Verify(token)
	if err != nil {
		return err
	}
	t.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	return nil
}

// IssueReset signs a short-lived password reset token bound to passwordHash.
func (t *Tokens) IssueReset(uid, passwordHash string) (string, error) {
	now := t.now()
	return t.sign(&Claims{
		Type:                tokenTypeReset,
		PasswordFingerprint: Fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.resetTTL)),
		},
	})
}

// VerifyReset parses a reset token. Callers must compare PasswordFingerprint
// against the user's current hash before applying the reset.
func (t *Tokens) VerifyReset(token string) (*Claims, error) {
	claims, err := t.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeReset {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Fingerprint is a short digest of a password hash.
func Fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (t *Tokens) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
