package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/plywoodshop/storefront/pkg/config"
	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash is returned for anything that is not a PHC formatted
	// argon2id string.
	ErrInvalidHash = errors.New("security: malformed argon2id hash")
	// ErrIncompatibleVersion means the hash was made by another argon2 revision.
	ErrIncompatibleVersion = errors.New("security: unsupported argon2 version")
)

var b64 = base64.RawStdEncoding

type argonCost struct {
	memoryKB uint32
	passes   uint32
	threads  uint8
	saltLen  uint32
	keyLen   uint32
}

// HashPassword derives an argon2id key with a fresh salt and encodes it as
// $argon2id$v=19$m=<kb>,t=<passes>,p=<threads>$<salt>$<key>. Out of range
// costs from the environment are clamped rather than rejected.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("security: empty password")
	}

	cost := costFromConfig(cfg)
	salt := make([]byte, cost.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("security: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, cost.passes, cost.memoryKB, cost.threads, cost.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, cost.memoryKB, cost.passes, cost.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword recomputes the key with the costs stored in encoded and
// compares in constant time. A mismatch is (false, nil); only an unreadable
// hash is an error.
func VerifyPassword(password, encoded string) (bool, error) {
	cost, salt, want, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, cost.passes, cost.memoryKB, cost.threads, cost.keyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func costFromConfig(cfg config.PasswordConfig) argonCost {
	return argonCost{
		memoryKB: uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		passes:   uint32(clamp(cfg.ArgonTime, 1, 10)),
		threads:  uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen:  uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		keyLen:   uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func parseHash(encoded string) (argonCost, []byte, []byte, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return argonCost{}, nil, nil, ErrIncompatibleVersion
	}

	var cost argonCost
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &cost.memoryKB, &cost.passes, &cost.threads); err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	if cost.memoryKB == 0 || cost.passes == 0 || cost.threads == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	cost.saltLen = uint32(len(salt))
	cost.keyLen = uint32(len(key))
	return cost, salt, key, nil
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}
