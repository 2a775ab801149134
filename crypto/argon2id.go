package crypto

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/spexcher/Pictionary/domain"
)

// MaxRoomPasswordLength bounds the input fed to argon2id, in bytes.
const MaxRoomPasswordLength = 128

var ErrPasswordTooLong = errors.New("password-too-long")

// Argon2idHasher hashes private room passwords.
type Argon2idHasher struct {
	params *argon2id.Params
}

// NewArgon2idHasher creates a hasher for room passwords. Rooms are short lived,
// so the server runs it with far lighter settings than account passwords get.
//
// memory must be provided in Kilobytes (KB).
func NewArgon2idHasher(time, memory, keyLength, saltLength uint32, parallelism uint8) *Argon2idHasher {
	return &Argon2idHasher{
		params: &argon2id.Params{
			Memory:      memory,
			Iterations:  time,
			Parallelism: parallelism,
			SaltLength:  saltLength,
			KeyLength:   keyLength,
		},
	}
}

// Hash returns the encoded argon2id hash of a room password, salt and
// parameters included, ready to be stored on the room.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if len(password) > MaxRoomPasswordLength {
		return "", ErrPasswordTooLong
	}
	hash, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedPasswordHashError, err)
	}
	return hash, nil
}

// Compare verifies a password against a stored room hash. A password longer
// than any Hash accepts never matches and is not hashed.
func (h *Argon2idHasher) Compare(hash, password string) (bool, error) {
	if len(password) > MaxRoomPasswordLength {
		return false, nil
	}
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.UnexpectedPasswordHashError, err)
	}
	return match, nil
}
