package security

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// BuildClientConfig produces an ssh.ClientConfig for the given user and
// password, configured per opts.Level. When opts.Level selects
// KnownHosts host-key policy and knownHostsPath is empty, the user's
// default "~/.ssh/known_hosts" is used.
func BuildClientConfig(user, password string, opts Options, knownHostsPath string) (*ssh.ClientConfig, error) {
	pref := Resolve(opts.Level)

	cfg := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{ssh.Password(password)},
		Config: ssh.Config{
			KeyExchanges: pref.KeyExchanges,
			Ciphers:      pref.Ciphers,
			MACs:         pref.MACs,
		},
		HostKeyAlgorithms: pref.HostKeyAlgos,
		Timeout:           opts.InactivityTimeout,
	}

	switch pref.HostKeyPolicy {
	case NoCheck:
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	default:
		if knownHostsPath == "" {
			if home, err := os.UserHomeDir(); err == nil {
				knownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
			}
		}
		cb, err := knownhosts.New(knownHostsPath)
		if err != nil {
			return nil, err
		}
		cfg.HostKeyCallback = cb
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return cfg, nil
}
