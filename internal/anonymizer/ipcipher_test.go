package anonymizer

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Key derivation vectors from the ipcipher specification.
func TestDeriveIPKey_SpecVectors(t *testing.T) {
	cases := []struct {
		passphrase string
		want       string
	}{
		{"", "bb8dcd7be9a6f43b3304c640d7d7103c"},
		{"3.141592653589793", "3705bd6c0e26a1a839898f1fa016a374"},
		{"crypto is not a coin", "06c4bad23a38b9e0ad9d0590b0a3d93a"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, hex.EncodeToString(deriveIPKey(tc.passphrase)), "passphrase %q", tc.passphrase)
	}
}

// Encryption vectors from the ipcipher specification, key "crypto is not a coin".
func TestCryptIP_SpecVectors(t *testing.T) {
	const key = "crypto is not a coin"
	cases := []struct {
		in, want string
	}{
		{"198.41.0.4", "139.111.117.167"},
		{"130.161.180.1", "66.235.221.231"},
		{"0.0.0.0", "203.253.152.187"},
		{"::1", "a551:9cb0:c9b:f6e1:6112:58a:af29:3a6c"},
		{"2001:503:ba3e::2:30", "6e60:2674:2fac:d383:f9d5:dcfe:fc53:328e"},
		{"2001:db8::", "a8f5:16c8:e2ea:23b9:748d:67a2:4107:9d2e"},
	}
	for _, tc := range cases {
		got, err := encryptIP(key, tc.in)
		require.NoError(t, err, "encrypt %s", tc.in)
		assert.Equal(t, tc.want, got, "encrypt %s", tc.in)

		back, err := decryptIP(key, got)
		require.NoError(t, err, "decrypt %s", got)
		assert.Equal(t, tc.in, back, "round trip %s", tc.in)
	}
}

func TestCryptIP_InvalidAddress(t *testing.T) {
	_, err := encryptIP("key", "not-an-ip")
	assert.Error(t, err)
}
