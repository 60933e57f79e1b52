package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong-pass"))
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// Exactly at the bcrypt limit is fine, but the 73-byte variant must not
	// verify against it via truncation.
	hash, err := HashPassword(strings.Repeat("a", 72))
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, strings.Repeat("a", 72)))
	assert.False(t, CheckPassword(hash, strings.Repeat("a", 73)))
}
