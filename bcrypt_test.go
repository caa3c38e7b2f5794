package signup_test

import (
	"testing"

	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := signup.HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "secret1", hash)

	// per-call random salt: same input, different digests
	again, err := signup.HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := signup.HashPassword("")
	assert.ErrorIs(t, err, signup.ErrNoEmptyString)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := signup.HashPassword("secret1")
	require.NoError(t, err)

	assert.NoError(t, signup.ComparePasswordAndHash("secret1", hash))
	assert.ErrorIs(t, signup.ComparePasswordAndHash("wrong", hash), signup.ErrInvalidCredentials)
}

func TestComparePasswordAndHashMalformedDigest(t *testing.T) {
	// a malformed digest fails the same way a mismatch does
	err := signup.ComparePasswordAndHash("secret1", "not-a-bcrypt-digest")
	assert.ErrorIs(t, err, signup.ErrInvalidCredentials)
}
