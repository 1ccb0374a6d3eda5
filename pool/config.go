package pool

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mvandenburg/netssh/recording"
)

// Config holds pool-level configuration loaded from a YAML file,
// letting an operator override the cache's size and idle-eviction
// window without recompiling.
//
// Adapted from client/client.go's Config struct, externalized to YAML
// because this module's callers are CLIs/operators rather than
// another Go program embedding the client directly.
type Config struct {
	// Capacity overrides the default number of cached connections.
	// Zero or negative falls back to the package default.
	Capacity int `yaml:"capacity"`

	// IdleTTLSeconds overrides the idle-eviction window, in seconds.
	// Zero or negative falls back to the package default.
	IdleTTLSeconds int `yaml:"idle_ttl_seconds"`

	// RecorderLevel names the default recording.Level new sessions are
	// given when a caller doesn't pass one explicitly ("off",
	// "key_events_only", or "full"). Empty means Off.
	RecorderLevel string `yaml:"recorder_level"`
}

func (c Config) capacity() int {
	if c.Capacity > 0 {
		return c.Capacity
	}
	return Capacity
}

func (c Config) idleTTL() time.Duration {
	if c.IdleTTLSeconds > 0 {
		return time.Duration(c.IdleTTLSeconds) * time.Second
	}
	return IdleTTL
}

func (c Config) recorderLevel() (recording.Level, error) {
	switch c.RecorderLevel {
	case "", "off":
		return recording.Off, nil
	case "key_events_only":
		return recording.KeyEventsOnly, nil
	case "full":
		return recording.Full, nil
	default:
		return recording.Off, fmt.Errorf("pool: unknown recorder_level %q", c.RecorderLevel)
	}
}

// LoadConfig reads and parses a pool configuration YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pool: reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pool: parsing config: %w", err)
	}
	if _, err := cfg.recorderLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewWithConfig builds a pool using cfg's capacity/idle-TTL overrides
// in place of the package defaults. An unrecognized RecorderLevel is
// treated as Off rather than returning an error; validate cfg with
// LoadConfig first to catch a typo'd level.
func NewWithConfig(cfg Config) *Pool {
	p := &Pool{defaultRecorderLevel: mustRecorderLevel(cfg)}
	p.cache = cache(cfg, p)
	return p
}

func cache(cfg Config, p *Pool) *expirableCache {
	return newExpirableCache(cfg.capacity(), p.onEvict, cfg.idleTTL())
}

func mustRecorderLevel(cfg Config) recording.Level {
	lvl, _ := cfg.recorderLevel() // validated in LoadConfig; New() path has no string to misparse
	return lvl
}
