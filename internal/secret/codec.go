// Package secret implements the versioned codec for credential secrets at
// rest. Each ciphertext carries a scheme tag ("v1:", "v2:") so the scheme
// can be upgraded without invalidating stored rows: old versions stay
// decodable, new writes always use the current version.
//
// v1 is the legacy reversible base64 encoding inherited from early data and
// is never written. v2 is AES-256-GCM with a random nonce prepended to the
// sealed payload. Key rotation and per-record key derivation are out of
// scope; a keyed successor scheme would be introduced as v3.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
)

const (
	versionLegacy = "v1"
	versionAESGCM = "v2"

	// KeySize is the required key length in bytes (AES-256).
	KeySize = 32
)

// ErrKeySize is returned by New when the key is not exactly KeySize bytes.
var ErrKeySize = errors.New("secret: key must be 32 bytes")

// Codec encrypts and decrypts credential secrets. The key is injected at
// construction; the codec never reads ambient state.
type Codec struct {
	aead cipher.AEAD
}

// New creates a Codec with the given AES-256 key.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secret: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secret: cipher.NewGCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encode encrypts plaintext under the current scheme and returns the tagged
// ciphertext. Decode(Encode(x)) == x for every x, including the empty string.
func (c *Codec) Encode(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secret: rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionAESGCM + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode decrypts a tagged ciphertext produced by any codec version. An
// untagged payload is treated as v1, the scheme used before version tags
// existed. Malformed input yields a KindCodecFailure error; callers treat
// the secret as empty rather than failing the operation.
func (c *Codec) Decode(ciphertext string) (string, error) {
	version, payload := splitVersion(ciphertext)

	switch version {
	case versionLegacy:
		return decodeLegacy(payload)
	case versionAESGCM:
		return c.decodeAESGCM(payload)
	default:
		return "", apperr.E(apperr.KindCodecFailure, fmt.Sprintf("unknown codec version %q", version))
	}
}

// splitVersion separates the scheme tag from the payload. Only strings of
// the form "v<digit>:" count as tags; anything else is a bare v1 payload
// (base64 never contains ':').
func splitVersion(ciphertext string) (version, payload string) {
	i := strings.IndexByte(ciphertext, ':')
	if i < 0 {
		return versionLegacy, ciphertext
	}
	return ciphertext[:i], ciphertext[i+1:]
}

func decodeLegacy(payload string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", apperr.Wrap(apperr.KindCodecFailure, "legacy base64 decode", err)
	}
	return string(data), nil
}

func (c *Codec) decodeAESGCM(payload string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", apperr.Wrap(apperr.KindCodecFailure, "base64 decode", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", apperr.E(apperr.KindCodecFailure, "ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindCodecFailure, "gcm open", err)
	}

	return string(plaintext), nil
}

// EncodeLegacy produces a v1-tagged ciphertext. It exists only so tests and
// migration tooling can fabricate pre-v2 rows.
func EncodeLegacy(plaintext string) string {
	return versionLegacy + ":" + base64.StdEncoding.EncodeToString([]byte(plaintext))
}
