package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticator/authenticator/internal/config"
)

func TestHashAndVerify(t *testing.T) {
	testCases := []struct {
		name   string
		cfg    config.Password
		prefix string
	}{
		{name: "argon2id default", cfg: config.Password{}, prefix: "$argon2id$"},
		{name: "argon2id cost", cfg: config.Password{Algorithm: config.AlgorithmArgon2id, HashCost: 2}, prefix: "$argon2id$"},
		{name: "bcrypt", cfg: config.Password{Algorithm: config.AlgorithmBcrypt, HashCost: 4}, prefix: "$2a$04$"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHasher(tc.cfg)

			hash, err := h.Hash("secret1")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, tc.prefix), hash)
			assert.NotContains(t, hash, "secret1")

			ok, err := h.Verify("secret1", hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify("wrong", hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyAcrossAlgorithms(t *testing.T) {
	bcryptHash, err := NewHasher(config.Password{Algorithm: config.AlgorithmBcrypt, HashCost: 4}).Hash("pw")
	require.NoError(t, err)

	argon := NewHasher(config.Password{Algorithm: config.AlgorithmArgon2id})

	ok, err := argon.Verify("pw", bcryptHash)
	require.NoError(t, err)
	assert.True(t, ok, "legacy bcrypt hashes keep working")
}

func TestHashEmpty(t *testing.T) {
	_, err := NewHasher(config.Password{}).Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerifyUnknownHash(t *testing.T) {
	_, err := NewHasher(config.Password{}).Verify("pw", "plaintext")
	require.ErrorIs(t, err, ErrUnknownHash)
}

func TestGenerate(t *testing.T) {
	seen := make(map[string]struct{})

	for range 50 {
		pw, err := Generate(0)
		require.NoError(t, err)
		assert.Len(t, pw, GeneratedLen)

		for _, c := range []byte(pw) {
			assert.Contains(t, string(generateChars), string(c))
		}

		seen[pw] = struct{}{}
	}

	assert.Len(t, seen, 50)

	pw, err := Generate(5)
	require.NoError(t, err)
	assert.Len(t, pw, 5)
}
