package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	for _, pw := range []string{"testpassword", "", "pässwörd with spaces", strings.Repeat("x", 72)} {
		hashed, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, h.Verify(pw, hashed), "password %q", pw)
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same", a))
	assert.True(t, h.Verify("same", b))
}

func TestPasswordHasher_Mismatch(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	hashed, err := h.Hash("right")
	require.NoError(t, err)

	assert.False(t, h.Verify("wrong", hashed))
	assert.False(t, h.Verify("", hashed))
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("anything", ""))
	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("anything", "$2a$04$short"))
}

func TestPasswordHasher_TooLong(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewPasswordHasher_InvalidCost(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(0)
	hashed, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
