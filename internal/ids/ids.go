// Package ids generates the opaque identifiers and secrets handed out to
// admins and players, and digests secrets so records never hold them in clear.
//
// Identifiers are not checked against existing records. With 48 bits of
// entropy for public ids a collision simply overwrites the older room.
package ids

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const (
	// PublicBytes is the size of room and player ids.
	PublicBytes = 6
	// SecretBytes is the size of admin keys and player tokens.
	SecretBytes = 12
)

// New returns n random bytes encoded as unpadded base64url.
func New(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Public returns a room or player id.
func Public() string { return New(PublicBytes) }

// Secret returns an admin key or player token.
func Secret() string { return New(SecretBytes) }

// Hasher turns secrets into keyed BLAKE2b-256 digests.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher keyed with pepper. An empty pepper yields plain
// BLAKE2b-256 digests.
func NewHasher(pepper string) *Hasher {
	if len(pepper) > blake2b.Size {
		sum := blake2b.Sum256([]byte(pepper))
		return &Hasher{key: sum[:]}
	}
	return &Hasher{key: []byte(pepper)}
}

// Digest returns the hex digest of secret.
func (h *Hasher) Digest(secret string) string {
	m, err := blake2b.New256(h.key)
	if err != nil {
		// Only reachable with a key longer than 64 bytes, which NewHasher prevents.
		panic(err)
	}
	m.Write([]byte(secret))
	return hex.EncodeToString(m.Sum(nil))
}

// Verify reports whether secret matches digest in constant time.
func (h *Hasher) Verify(secret, digest string) bool {
	if secret == "" || digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.Digest(secret)), []byte(digest)) == 1
}
