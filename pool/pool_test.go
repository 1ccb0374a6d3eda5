package pool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvandenburg/netssh/recording"
)

func TestParams_DeviceAddr(t *testing.T) {
	p := Params{User: "admin", Host: "10.0.0.1", Port: 22}
	assert.Equal(t, "admin@10.0.0.1:22", p.deviceAddr())
}

func TestPool_EmptyLifecycle(t *testing.T) {
	p := New()
	assert.Equal(t, 0, p.Len())
	p.Close() // must not panic with nothing cached
	assert.Equal(t, 0, p.Len())
}

func TestPool_CapacityAndTTLMatchSpec(t *testing.T) {
	assert.Equal(t, 100, Capacity)
	assert.Equal(t, "5m0s", IdleTTL.String())
}

func TestLoadConfig_AppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 10\nidle_ttl_seconds: 30\nrecorder_level: full\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.capacity())
	assert.Equal(t, "30s", cfg.idleTTL().String())
	lvl, err := cfg.recorderLevel()
	require.NoError(t, err)
	assert.Equal(t, recording.Full, lvl)
}

func TestLoadConfig_DefaultsWhenUnset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Capacity, cfg.capacity())
	assert.Equal(t, IdleTTL, cfg.idleTTL())
}

func TestLoadConfig_RejectsUnknownRecorderLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recorder_level: bogus\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestNewWithConfig_BuildsEmptyPool(t *testing.T) {
	p := NewWithConfig(Config{Capacity: 5, IdleTTLSeconds: 60})
	assert.Equal(t, 0, p.Len())
	p.Close()
}
