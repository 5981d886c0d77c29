package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordHasher turns passwords into storable hashes and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

const (
	argonKeyLen  = 32
	argonSaltLen = 16
)

// ErrInvalidHash is returned when a stored hash cannot be parsed.
var ErrInvalidHash = errors.New("invalid password hash")

// Argon2Hasher hashes with Argon2id. Verify reads the cost parameters from
// the stored hash, so changing them only affects new hashes.
type Argon2Hasher struct {
	Memory     uint32 // KiB
	Iterations uint32
	Threads    uint8
}

// NewArgon2Hasher returns a hasher with the given cost parameters.
func NewArgon2Hasher(memoryKiB, iterations, threads int) *Argon2Hasher {
	return &Argon2Hasher{
		Memory:     uint32(memoryKiB),  //nolint:gosec // validated positive by config
		Iterations: uint32(iterations), //nolint:gosec // validated positive by config
		Threads:    uint8(threads),     //nolint:gosec // validated positive by config
	}
}

// Hash returns password in PHC format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Iterations, h.Memory, h.Threads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.Memory, h.Iterations, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded.
func (h *Argon2Hasher) Verify(password, encoded string) (bool, error) {
	p, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), p.salt, p.iterations, p.memory, p.threads, uint32(len(p.key))) //nolint:gosec // key length fits uint32
	return subtle.ConstantTimeCompare(p.key, candidate) == 1, nil
}

type phcHash struct {
	memory     uint32
	iterations uint32
	threads    uint8
	salt       []byte
	key        []byte
}

func decodePHC(encoded string) (phcHash, error) {
	var p phcHash

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, fmt.Errorf("%w: expected 6 fields", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return p, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, fmt.Errorf("%w: version: %v", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return p, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.threads); err != nil {
		return p, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return p, fmt.Errorf("%w: key: %v", ErrInvalidHash, err)
	}
	if len(p.key) == 0 {
		return p, fmt.Errorf("%w: empty key", ErrInvalidHash)
	}

	return p, nil
}
