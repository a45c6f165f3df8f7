package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignDetached_VerifyDetached_RoundTrip(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)

	payload := []byte("trial master file contents")
	sig, err := SignDetached(key, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	ok, err := VerifyDetached(&key.PublicKey, payload, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyDetached_TamperedPayloadFails(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)

	sig, err := SignDetached(key, []byte("original bytes"))
	require.NoError(t, err)

	ok, err := VerifyDetached(&key.PublicKey, []byte("tampered bytes"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyDetached_WrongKeyFails(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	otherKey, err := GenerateKeyPair()
	require.NoError(t, err)

	sig, err := SignDetached(key, []byte("payload"))
	require.NoError(t, err)

	ok, err := VerifyDetached(&otherKey.PublicKey, []byte("payload"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPublicKeyPEM_RoundTrip(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)

	pemStr, err := EncodePublicKeyPEM(&key.PublicKey)
	require.NoError(t, err)
	assert.Contains(t, pemStr, "PUBLIC KEY")

	decoded, err := DecodePublicKeyPEM(pemStr)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, decoded.N)
	assert.Equal(t, key.PublicKey.E, decoded.E)
}
