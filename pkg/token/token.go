package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is the payload carried by an admin bearer token.
type Session struct {
	UserID    uuid.UUID `json:"uid"`
	TenantID  uuid.UUID `json:"tid"`
	Email     string    `json:"eml"`
	Role      string    `json:"rol"`
	ExpiresAt int64     `json:"exp"` // unix seconds
}

// Issuer signs and verifies session tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// NewIssuer creates an Issuer. A zero ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed token for the given session identity.
func (i *Issuer) Issue(userID, tenantID uuid.UUID, email, role string) (string, error) {
	s := Session{
		UserID:    userID,
		TenantID:  tenantID,
		Email:     email,
		Role:      role,
		ExpiresAt: time.Now().UTC().Add(i.ttl).Unix(),
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data) + "." + i.sign(data), nil
}

// Parse verifies the signature and expiry and returns the session payload.
func (i *Issuer) Parse(tok string) (Session, error) {
	var s Session

	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return s, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return s, ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return s, ErrInvalidToken
	}

	expected, err := base64.RawURLEncoding.DecodeString(i.sign(data))
	if err != nil {
		return s, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return s, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return s, ErrInvalidToken
	}
	if time.Now().UTC().Unix() > s.ExpiresAt {
		return s, ErrTokenExpired
	}
	return s, nil
}

// sign returns the base64url truncated HMAC-SHA256 signature of data.
func (i *Issuer) sign(data []byte) string {
	h := hmac.New(sha256.New, i.secret)
	h.Write(data)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:16])
}
