package utils // package utils provides helpers for password hashing and token issuing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTokenBytes is the entropy of a session token (256 bits).
const sessionTokenBytes = 32

// NewSessionToken returns a hex-encoded cryptographically random token.
func NewSessionToken() (string, error) {
	return randomHex(sessionTokenBytes)
}

// IngestIssuer is the iss claim of bearer tokens minted by the bridge.
const IngestIssuer = "weatherwear-bridge"

var ErrInvalidIngestToken = errors.New("invalid ingest token")

// NewIngestToken signs a short-lived HS256 JWT the bridge presents on the
// device registration and reading ingestion routes.
func NewIngestToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    IngestIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseIngestToken verifies signature, expiry and issuer of an ingest token
// and returns its subject.
func ParseIngestToken(secret, raw string) (string, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidIngestToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(IngestIssuer), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", ErrInvalidIngestToken
	}
	return claims.Subject, nil
}

// randomHex returns a hex string generated from n bytes of secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
