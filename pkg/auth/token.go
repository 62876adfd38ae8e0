package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors for token operations.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = errors.New("token signing secret must be at least 32 characters")
)

// Claims is the payload of the bearer token.
//
// The token is the only session state: validation trusts the claims once
// the signature and expiry check out, with no store lookup. Revocation
// before expiry is out of scope.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the numeric platform user ID.
	UserID int64 `json:"userId"`

	// Role is the user's role (admin, operator, viewer).
	Role string `json:"role"`
}

// IsAdmin returns true if the token carries the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// TokenConfig holds configuration for bearer token issuance.
type TokenConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// TTLMinutes is the token lifetime. Default: 60.
	TTLMinutes int `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
}

// TokenService issues and validates signed, time-bounded bearer tokens.
//
// The wire format is the JWT compact form:
// base64url(header).base64url(payload).base64url(hmac_sha256(header.payload)),
// unpadded. Validation recomputes the HMAC over header.payload with the
// server secret and rejects on mismatch before trusting any claim.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a token service with the given configuration.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if config.TTLMinutes == 0 {
		config.TTLMinutes = 60
	}
	return &TokenService{config: config}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return time.Duration(s.config.TTLMinutes) * time.Minute
}

// Issue creates a signed token for the given identity using the configured
// lifetime.
func (s *TokenService) Issue(username string, userID int64, role string) (string, error) {
	return s.IssueWithTTL(username, userID, role, s.TTL())
}

// IssueWithTTL creates a signed token with an explicit lifetime.
// exp is always iat + ttl; a non-positive ttl produces an already-expired
// token, which Validate will reject.
func (s *TokenService) IssueWithTTL(username string, userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", ErrTokenSigningFailed
	}
	return signed, nil
}

// Validate checks a token's structure, signature, and expiry, returning
// the embedded claims.
//
// Every malformed input maps to ErrInvalidToken and expiry to
// ErrExpiredToken; no other detail leaks and no error escapes unwrapped.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// Reject any non-HMAC algorithm before touching the signature.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
