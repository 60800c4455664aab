package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionRoundTrip(t *testing.T) {
	enc, err := NewEncryption(strings.Repeat("k", 32))
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("bot_token=123:abc")
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "123:abc")

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "bot_token=123:abc", plaintext)

	// Nonces make every encryption distinct
	again, err := enc.Encrypt("bot_token=123:abc")
	require.NoError(t, err)
	assert.NotEqual(t, ciphertext, again)
}

func TestEncryptionBadKey(t *testing.T) {
	_, err := NewEncryption("too-short")
	assert.Error(t, err)
}

func TestEncryptionTamperedCiphertext(t *testing.T) {
	enc, err := NewEncryption(strings.Repeat("k", 32))
	require.NoError(t, err)

	_, err = enc.Decrypt("not-base64!!")
	assert.Error(t, err)
}

func TestJWTRoundTrip(t *testing.T) {
	jm := NewJWTManager("test-secret", 1)

	token, err := jm.GenerateToken("operator-1")
	require.NoError(t, err)

	claims, err := jm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.Name)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", 1).GenerateToken("operator-1")
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", 1).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidatorURL(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.ValidateURL("https://example.com/hook"))
	assert.True(t, v.ValidateURL("http://fetcher.internal:9000"))
	assert.False(t, v.ValidateURL("ftp://example.com"))
	assert.False(t, v.ValidateURL("not a url"))
}

func TestSanitizeInput(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, "hello", v.SanitizeInput("  hello  "))
	assert.NotContains(t, v.SanitizeInput("a\x00b"), "\x00")
}

func TestPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, 10, p.GetOffset())

	// Out-of-range inputs normalize
	p = NewPagination(0, 0, 5)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.GetOffset())
}
