package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AdminCookieName carries the signed admin token.
const AdminCookieName = "printeasy_admin"

// DefaultTokenTTL applies when NewSigner gets a non-positive ttl.
const DefaultTokenTTL = 12 * time.Hour

const adminSubject = "admin"

// ErrInvalidToken covers missing, forged, expired and foreign tokens.
var ErrInvalidToken = errors.New("invalid admin token")

// AdminClaims is the payload of an admin token.
type AdminClaims struct {
	jwt.RegisteredClaims
}

// Signer issues and verifies admin tokens. Any process holding the same key
// accepts a token issued by another, so admin login survives across
// instances that share no memory.
type Signer struct {
	key     []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewSigner derives the HMAC key from secret.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	sum := sha256.Sum256([]byte("printeasy-admin-token:" + secret))
	return &Signer{key: sum[:], ttl: ttl, nowFunc: time.Now}
}

// TTL is how long an issued token stays valid.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Issue returns a signed admin token and its expiry.
func (s *Signer) Issue() (string, time.Time, error) {
	now := s.nowFunc()
	exp := now.Add(s.ttl)
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   adminSubject,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return token, exp, nil
}

// Verify checks signature, algorithm, expiry and subject.
func (s *Signer) Verify(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidToken
	}
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if claims.Subject != adminSubject || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	return nil
}
