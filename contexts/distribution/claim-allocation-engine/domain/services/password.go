package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordParams tunes Argon2id for pool passwords.
type PasswordParams struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength uint32
}

var DefaultPasswordParams = PasswordParams{
	Time:       2,
	Memory:     19 * 1024,
	Threads:    1,
	KeyLength:  32,
	SaltLength: 16,
}

var errMalformedHash = errors.New("malformed password hash")

// HashPoolPassword encodes password as argon2id$time$memory$threads$salt$hash.
func HashPoolPassword(password string) (string, error) {
	params := DefaultPasswordParams
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLength)
	return strings.Join([]string{
		"argon2id",
		strconv.FormatUint(uint64(params.Time), 10),
		strconv.FormatUint(uint64(params.Memory), 10),
		strconv.FormatUint(uint64(params.Threads), 10),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// Argon2Verifier checks plain passwords against HashPoolPassword output.
type Argon2Verifier struct{}

func (Argon2Verifier) Verify(password string, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false, errMalformedHash
	}
	timeCost, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return false, fmt.Errorf("%w: time: %v", errMalformedHash, err)
	}
	memory, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return false, fmt.Errorf("%w: memory: %v", errMalformedHash, err)
	}
	threads, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil || threads == 0 {
		return false, fmt.Errorf("%w: threads", errMalformedHash)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", errMalformedHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, fmt.Errorf("%w: key", errMalformedHash)
	}

	got := argon2.IDKey([]byte(password), salt, uint32(timeCost), uint32(memory), uint8(threads), uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
