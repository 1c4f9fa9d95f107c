package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaultsFillsSpecDefaults(t *testing.T) {
	var cfg Config
	SetDefaults(&cfg)
	assert.Equal(t, 4, cfg.Run.NumThreads)
	assert.Equal(t, 50, cfg.Run.ColocationLimit)
	assert.InDelta(t, 0.0005, cfg.Run.NMPThreshold, 1e-12)
	assert.Equal(t, ".list", cfg.Paths.UserListExt)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestValidateRejectsMissingRequiredPaths(t *testing.T) {
	cfg := Config{}
	SetDefaults(&cfg)
	err := Validate(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DataPath")
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	cfg := Config{
		Paths: PathsConfig{DataPath: "/data", SystemsFile: "systems.csv", LogFilePath: "/tmp/log"},
	}
	SetDefaults(&cfg)
	require.NoError(t, Validate(&cfg))
}
