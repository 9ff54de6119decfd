package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params holds Argon2id cost parameters.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the parameters used for new digests.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Upper bounds accepted when reading parameters back from a stored digest.
const (
	maxDigestMemory     = 1024 * 1024
	maxDigestIterations = 64
	maxDigestKeyLength  = 128
)

// PasswordHasher hashes and verifies passwords with Argon2id.
// Digests use the PHC string format, so parameters travel with the digest.
type PasswordHasher struct {
	params Argon2Params
}

// NewPasswordHasher creates a hasher. Zero fields fall back to defaults.
func NewPasswordHasher(params Argon2Params) *PasswordHasher {
	def := DefaultArgon2Params()
	if params.Memory == 0 {
		params.Memory = def.Memory
	}
	if params.Iterations == 0 {
		params.Iterations = def.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = def.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = def.KeyLength
	}
	return &PasswordHasher{params: params}
}

// Hash returns $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches digest.
// A malformed digest is a mismatch.
func (h *PasswordHasher) Verify(digest, plaintext string) bool {
	d, err := parseDigest(digest)
	if err != nil {
		return false
	}

	other := argon2.IDKey([]byte(plaintext), d.salt, d.iterations, d.memory, d.parallelism, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(d.key, other) == 1
}

type argon2Digest struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseDigest(encoded string) (*argon2Digest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("digest: expected 6 segments")
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("digest: unsupported algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("digest: unsupported version")
	}

	d := &argon2Digest{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.iterations, &d.parallelism); err != nil {
		return nil, fmt.Errorf("digest: params: %w", err)
	}
	if d.memory == 0 || d.memory > maxDigestMemory ||
		d.iterations == 0 || d.iterations > maxDigestIterations ||
		d.parallelism == 0 {
		return nil, fmt.Errorf("digest: params out of range")
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return nil, fmt.Errorf("digest: salt")
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 || len(d.key) > maxDigestKeyLength {
		return nil, fmt.Errorf("digest: key")
	}
	return d, nil
}
