package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureExcludesWeakAlgorithms(t *testing.T) {
	p := Resolve(Secure)
	for _, weak := range []string{"diffie-hellman-group1-sha1", "hmac-sha1", "aes128-cbc"} {
		assert.NotContains(t, p.KeyExchanges, weak)
		assert.NotContains(t, p.Ciphers, weak)
		assert.NotContains(t, p.MACs, weak)
	}
	assert.Equal(t, KnownHosts, p.HostKeyPolicy)
}

func TestLegacyIncludesWeakAlgorithms(t *testing.T) {
	p := Resolve(LegacyCompatible)
	assert.Contains(t, p.KeyExchanges, "diffie-hellman-group1-sha1")
	assert.Contains(t, p.MACs, "hmac-sha1")
	assert.Contains(t, p.Ciphers, "aes128-cbc")
	assert.Equal(t, NoCheck, p.HostKeyPolicy)
}

func TestBalancedIsBetweenSecureAndLegacy(t *testing.T) {
	secure := Resolve(Secure)
	balanced := Resolve(Balanced)
	legacy := Resolve(LegacyCompatible)
	assert.True(t, len(balanced.KeyExchanges) >= len(secure.KeyExchanges))
	assert.True(t, len(legacy.KeyExchanges) >= len(balanced.KeyExchanges))
	assert.Equal(t, KnownHosts, balanced.HostKeyPolicy)
}

func TestCompressionSharedAcrossLevels(t *testing.T) {
	for _, l := range []Level{Secure, Balanced, LegacyCompatible} {
		assert.Equal(t, compressionAlgorithms, Resolve(l).Compression)
	}
}

func TestDefaultOptionsIsSecure(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, Secure, o.Level)
}
