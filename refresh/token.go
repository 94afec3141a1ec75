package refresh

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

// SecretSize is the length of a refresh secret in bytes.
const SecretSize = 32

const rawSize = 16 + SecretSize

// ErrMalformed is returned for tokens that do not decode.
var ErrMalformed = errors.New("malformed refresh token")

// Secret is the random half of a refresh token.
type Secret [SecretSize]byte

// NewSessionID returns a random session UUID.
func NewSessionID() string {
	return uuid.NewString()
}

// NewSecret returns a fresh random secret.
func NewSecret() (Secret, error) {
	var s Secret
	_, err := rand.Read(s[:])
	return s, err
}

// Hash is the stored form of s.
func Hash(s Secret) [32]byte {
	return sha256.Sum256(s[:])
}

// Encode packs a session UUID and secret into a token.
func Encode(sessionID string, s Secret) (string, error) {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return "", err
	}
	var raw [rawSize]byte
	copy(raw[:16], sid[:])
	copy(raw[16:], s[:])
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// Decode reverses Encode.
func Decode(token string) (string, Secret, error) {
	var s Secret
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != rawSize {
		return "", s, ErrMalformed
	}
	sid, err := uuid.FromBytes(raw[:16])
	if err != nil {
		return "", s, ErrMalformed
	}
	copy(s[:], raw[16:])
	return sid.String(), s, nil
}
