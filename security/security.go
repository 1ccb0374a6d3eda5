// Package security implements the three named SSH algorithm-
// preference bundles and host-key verification policy.
//
// Grounded on original_source/src/session/security.rs (SecurityLevel,
// ConnectionSecurityOptions, preferred()) and src/config.rs (the
// per-level algorithm catalogues), mapped onto golang.org/x/crypto/ssh
// algorithm name constants instead of russh's.
package security

import (
	"time"

	"golang.org/x/crypto/ssh"
)

// Level names one of the three built-in bundles.
type Level int

const (
	// Secure is the default: modern algorithms only.
	Secure Level = iota
	// Balanced keeps broad compatibility while dropping weak entries.
	Balanced
	// LegacyCompatible adds weak legacy algorithms (CBC ciphers, SHA-1
	// key exchanges and MACs, DSA and SK host keys) on top of Balanced,
	// for talking to very old device firmware.
	LegacyCompatible
)

func (l Level) String() string {
	switch l {
	case Secure:
		return "Secure"
	case Balanced:
		return "Balanced"
	case LegacyCompatible:
		return "LegacyCompatible"
	default:
		return "Unknown"
	}
}

// HostKeyPolicy selects how the host key is verified.
type HostKeyPolicy int

const (
	// KnownHosts verifies against the default known_hosts file.
	KnownHosts HostKeyPolicy = iota
	// NoCheck disables host key verification entirely.
	NoCheck
)

// Preferred is the resolved set of algorithm preferences for a level,
// ready to populate an ssh.ClientConfig.
type Preferred struct {
	KeyExchanges    []string
	Ciphers         []string
	MACs            []string
	HostKeyAlgos    []string
	Compression     []string
	HostKeyPolicy   HostKeyPolicy
}

// Options is a named bundle selection plus the inactivity timeout
// shared by every level.
type Options struct {
	Level             Level
	InactivityTimeout time.Duration
}

// DefaultOptions returns the secure default, matching
// ConnectionSecurityOptions::default() (secure_default()).
func DefaultOptions() Options {
	return Options{Level: Secure, InactivityTimeout: 60 * time.Second}
}

var compressionAlgorithms = []string{"none", "zlib@openssh.com", "zlib"}

// secureKex / secureCiphers / secureMACs / secureKeyTypes mirror
// config.rs's SECURE_* catalogues, renamed onto x/crypto/ssh constants.
var secureKex = []string{
	"curve25519-sha256", "curve25519-sha256@libssh.org",
	"ecdh-sha2-nistp256", "ecdh-sha2-nistp384", "ecdh-sha2-nistp521",
}
var secureCiphers = []string{"aes256-gcm@openssh.com", "chacha20-poly1305@openssh.com", "aes256-ctr"}
var secureMACs = []string{"hmac-sha2-512-etm@openssh.com", "hmac-sha2-256-etm@openssh.com", "hmac-sha2-512"}
var secureKeyTypes = []string{
	ssh.KeyAlgoED25519,
	ssh.KeyAlgoECDSA256, ssh.KeyAlgoECDSA384, ssh.KeyAlgoECDSA521,
	ssh.KeyAlgoRSASHA512, ssh.KeyAlgoRSASHA256,
}

// balancedKex / ... mirror config.rs's BALANCED_* catalogues.
var balancedKex = append(append([]string{}, secureKex...),
	"diffie-hellman-group14-sha256", "diffie-hellman-group15-sha512",
	"diffie-hellman-group16-sha512", "diffie-hellman-group17-sha512",
	"diffie-hellman-group18-sha512",
)
var balancedCiphers = []string{"aes128-ctr", "aes192-ctr", "aes256-ctr", "aes256-gcm@openssh.com", "chacha20-poly1305@openssh.com"}
var balancedMACs = []string{"hmac-sha2-256", "hmac-sha2-512", "hmac-sha2-256-etm@openssh.com", "hmac-sha2-512-etm@openssh.com"}
var balancedKeyTypes = []string{
	ssh.KeyAlgoECDSA256, ssh.KeyAlgoECDSA384, ssh.KeyAlgoECDSA521,
	ssh.KeyAlgoED25519, ssh.KeyAlgoRSASHA256, ssh.KeyAlgoRSASHA512,
}

// legacyKex / ... mirror config.rs's LEGACY_* catalogues, including
// weak entries kept only for talking to very old firmware.
var legacyKex = append(append([]string{}, balancedKex...),
	"diffie-hellman-group-exchange-sha1", "diffie-hellman-group-exchange-sha256",
	"diffie-hellman-group1-sha1", "diffie-hellman-group14-sha1",
)
var legacyCiphers = append(append([]string{}, balancedCiphers...),
	"aes128-cbc", "aes192-cbc", "aes256-cbc", "3des-cbc",
)
var legacyMACs = append(append([]string{}, balancedMACs...),
	"hmac-sha1", "hmac-sha1-etm@openssh.com",
)
var legacyKeyTypes = append(append([]string{}, balancedKeyTypes...),
	ssh.KeyAlgoDSA, ssh.KeyAlgoSKED25519, ssh.KeyAlgoSKECDSA256,
)

// Resolve maps a Level onto the concrete algorithm lists and host-key
// policy golang.org/x/crypto/ssh needs. Grounded on security.rs's
// preferred().
func Resolve(l Level) Preferred {
	switch l {
	case Balanced:
		return Preferred{
			KeyExchanges: balancedKex, Ciphers: balancedCiphers, MACs: balancedMACs,
			HostKeyAlgos: balancedKeyTypes, Compression: compressionAlgorithms,
			HostKeyPolicy: KnownHosts,
		}
	case LegacyCompatible:
		return Preferred{
			KeyExchanges: legacyKex, Ciphers: legacyCiphers, MACs: legacyMACs,
			HostKeyAlgos: legacyKeyTypes, Compression: compressionAlgorithms,
			HostKeyPolicy: NoCheck,
		}
	default: // Secure
		return Preferred{
			KeyExchanges: secureKex, Ciphers: secureCiphers, MACs: secureMACs,
			HostKeyAlgos: secureKeyTypes, Compression: compressionAlgorithms,
			HostKeyPolicy: KnownHosts,
		}
	}
}

// Equal reports whether two Options bundles are equivalent, used by
// the connection pool's parameter-equivalence check.
func (o Options) Equal(other Options) bool {
	return o.Level == other.Level
}
