package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Stored credentials use the form salt:digest, both segments base64-encoded.
// The digest is argon2id over secret||salt. Argon2id is memory-hard, so a
// leaked users table resists offline brute force, not just casual inspection.
const (
	saltLength   = 16
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// Hasher hashes and verifies local user secrets.
//
// Both operations are pure: no I/O, no shared state.
type Hasher struct{}

// NewHasher creates a Hasher with the default argon2id parameters.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash derives a stored credential from a secret. A fresh random salt is
// generated per call, so hashing the same secret twice yields different
// stored forms.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return base64.RawStdEncoding.EncodeToString(salt) + ":" +
		base64.RawStdEncoding.EncodeToString(digest), nil
}

// GenerateRandomPassword generates a cryptographically secure random password.
// Returns a 24-character URL-safe base64 string (18 bytes of randomness).
// Returns an error if the system's random number generator fails.
func GenerateRandomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Verify checks a secret against a stored salt:digest credential.
// Malformed stored values (missing separator, bad base64) verify as false;
// Verify never returns an error.
func (h *Hasher) Verify(secret, stored string) bool {
	saltPart, digestPart, found := strings.Cut(stored, ":")
	if !found {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltPart)
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(digestPart)
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(got, want) == 1
}
