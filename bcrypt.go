package signup

import (
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor. Verification stays tractable while
// brute-forcing a leaked digest does not.
const HashCost = 10

// HashPassword will generate a password hash with a per-call random salt
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the hashed password. Mismatch and malformed digests surface
// as the same ErrInvalidCredentials so callers cannot tell them apart.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		// bcrypt distinguishes mismatch from a malformed digest; both
		// collapse here so the failure shape is identical either way.
		return ErrInvalidCredentials
	}
	return nil
}
