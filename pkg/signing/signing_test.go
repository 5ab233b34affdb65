package signing

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256KnownVector(t *testing.T) {
	// keccak256 of the empty string
	assert.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256()))
}

func TestAddressFromKnownKey(t *testing.T) {
	// private key 1 maps to the generator point
	key, err := ParsePrivateKey("0x0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", AddressFromPubKey(key.PubKey()))
}

func TestSignRecover(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	addr := AddressFromPubKey(key.PubKey())

	digest := TakeDigest(3, 42)
	sig := Sign(key, digest)
	require.Len(t, sig, SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := Recover(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)

	t.Run("different revision recovers a different address", func(t *testing.T) {
		other, err := Recover(TakeDigest(4, 42), sig)
		if err == nil {
			assert.NotEqual(t, addr, other)
		}
	})

	t.Run("zero based recovery id is accepted", func(t *testing.T) {
		alt := append([]byte(nil), sig...)
		alt[64] -= 27
		recovered, err := Recover(digest, alt)
		require.NoError(t, err)
		assert.Equal(t, addr, recovered)
	})

	t.Run("bad length", func(t *testing.T) {
		_, err := Recover(digest, sig[:64])
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("bad recovery id", func(t *testing.T) {
		alt := append([]byte(nil), sig...)
		alt[64] = 40
		_, err := Recover(digest, alt)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestTakeDigestLayout(t *testing.T) {
	assert.NotEqual(t, TakeDigest(0, 1), TakeDigest(1, 0))
	assert.Equal(t, TakeDigest(7, 9), TakeDigest(7, 9))
	assert.Len(t, TakeDigest(0, 0), 32)
}

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress("0xAbCdEf0123456789aBcDeF0123456789AbCdEf01")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", addr)

	addr, err = NormalizeAddress("abcdef0123456789abcdef0123456789abcdef01")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", addr)

	for _, bad := range []string{"", "0x1234", "0xzzcdef0123456789abcdef0123456789abcdef01"} {
		_, err := NormalizeAddress(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, bad)
	}
}

func TestCompressedPubKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, CompressedPubKey(key), CompressedPubKeyLength)
}

func TestParsePrivateKey(t *testing.T) {
	_, err := ParsePrivateKey("0x1234")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParsePrivateKey("not-hex")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
