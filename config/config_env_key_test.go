package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"allotment": map[string]any{
			"collectionPolicy":  "flip_to_no",
			"strictCoordinates": false,
		},
		"lock": map[string]any{
			"waitTimeout": "3s",
		},
		"secretKey": map[string]any{
			"access": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "ALLOTMENT_COLLECTIONPOLICY", want: "allotment.collectionPolicy"},
		{envKey: "ALLOTMENT_STRICTCOORDINATES", want: "allotment.strictCoordinates"},
		{envKey: "LOCK_WAITTIMEOUT", want: "lock.waitTimeout"},
		{envKey: "SECRETKEY_ACCESS", want: "secretKey.access"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestLoadWithEnv_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlBody := []byte(`
env:
  env: test
  log:
    level: debug
allotment:
  collectionPolicy: flip_to_no
  timeZone: UTC
lock:
  driver: memory
  waitTimeout: 2s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unit.yaml"), yamlBody, 0o600))

	t.Chdir(dir)
	t.Setenv("ALLOTMENT_COLLECTIONPOLICY", "hold_pending")

	cfg, err := LoadWithEnv[Config]("unit")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env.Env)
	assert.Equal(t, "hold_pending", cfg.Allotment.CollectionPolicy)
	assert.Equal(t, 2*time.Second, cfg.Lock.WaitTimeout)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, LockDriverMemory, cfg.Lock.Driver)
	assert.Equal(t, defaultLockWaitTimeout, cfg.Lock.WaitTimeout)
	assert.Equal(t, defaultQRCodeSize, cfg.QRCode.Size)

	loc, err := cfg.Allotment.Location()
	require.NoError(t, err)
	assert.NotNil(t, loc)
}
