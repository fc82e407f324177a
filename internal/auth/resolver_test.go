package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256ResolverEncode(t *testing.T) {
	r := SHA256Resolver{}

	digest, err := r.Encode("secret1")
	require.NoError(t, err)
	assert.Equal(t, "5b11618c2e44027877d0cd0921ed166b9f176f50587fc91e7534dd2946db77d6", digest)

	// Deterministic
	again, err := r.Encode("secret1")
	require.NoError(t, err)
	assert.Equal(t, digest, again)
}

func TestSHA256ResolverMatch(t *testing.T) {
	r := SHA256Resolver{}

	digest, err := r.Encode("secret1")
	require.NoError(t, err)

	assert.True(t, r.Match(digest, "secret1"))
	assert.False(t, r.Match(digest, "secret2"))
	assert.False(t, r.Match(digest, ""))
	assert.False(t, r.Match("", "secret1"))
}

func TestBcryptResolver(t *testing.T) {
	r := BcryptResolver{Cost: 4} // min cost keeps the test fast

	digest, err := r.Encode("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.True(t, r.Match(digest, "secret1"))
	assert.False(t, r.Match(digest, "secret2"))

	// Salted: two encodes differ, both still match
	other, err := r.Encode("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)
	assert.True(t, r.Match(other, "secret1"))
}

func TestNewResolver(t *testing.T) {
	assert.IsType(t, SHA256Resolver{}, NewResolver("sha256"))
	assert.IsType(t, SHA256Resolver{}, NewResolver(""))
	assert.IsType(t, SHA256Resolver{}, NewResolver("md5"))
	assert.IsType(t, BcryptResolver{}, NewResolver("bcrypt"))
}
