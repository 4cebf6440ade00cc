package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithRootAppliesDefaults(t *testing.T) {
	cfg := LoadWithRoot(t.TempDir())
	assert.Equal(t, uint32(1), cfg.MaxFramesInFlight)
	assert.Equal(t, "inline", cfg.ExecutionMode)
	assert.False(t, cfg.UseV2Cursor)
}

func TestLoadWithRootReadsEnvOverride(t *testing.T) {
	t.Setenv("TUIRUN_MAX_FRAMES_IN_FLIGHT", "3")
	t.Setenv("TUIRUN_FPS_CAP", "30")
	cfg := LoadWithRoot(t.TempDir())
	assert.Equal(t, uint32(3), cfg.MaxFramesInFlight)
	assert.Equal(t, uint16(30), cfg.FPSCap)
}

func TestLoadWithRootReadsYAMLOverride(t *testing.T) {
	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, "tuirun.yaml"), []byte("executionMode: worker\n"), 0644)
	require.NoError(t, err)
	cfg := LoadWithRoot(root)
	assert.Equal(t, "worker", cfg.ExecutionMode)
}

func TestValidateRejectsOversizedEventBytes(t *testing.T) {
	cfg := RuntimeConfig{MaxEventBytes: MaxEventBytesCeiling + 1, FPSCap: 60, ExecutionMode: "inline"}
	err := Validate(&cfg)
	assert.ErrorContains(t, err, "maxEventBytes")
}

func TestValidateRejectsFPSCapOverCeiling(t *testing.T) {
	cfg := RuntimeConfig{MaxEventBytes: 1024, FPSCap: FPSCapCeiling + 1, ExecutionMode: "inline"}
	err := Validate(&cfg)
	assert.ErrorContains(t, err, "fpsCap")
}

func TestValidateRejectsUnknownExecutionMode(t *testing.T) {
	cfg := RuntimeConfig{MaxEventBytes: 1024, FPSCap: 60, ExecutionMode: "bogus"}
	err := Validate(&cfg)
	assert.ErrorContains(t, err, "executionMode")
}

func TestValidateAcceptsInBoundsConfig(t *testing.T) {
	cfg := RuntimeConfig{MaxEventBytes: 1024, FPSCap: 60, ExecutionMode: "worker"}
	assert.NoError(t, Validate(&cfg))
}

func TestGetLogDirDefaultsUnderRoot(t *testing.T) {
	cfg := RuntimeConfig{Root: "/tmp/app"}
	assert.Equal(t, filepath.Join("/tmp/app", "logs"), cfg.GetLogDir())
}

func TestIsDevelopmentReflectsMode(t *testing.T) {
	prev := Conf
	defer func() { Conf = prev }()
	Conf.Mode = "development"
	assert.True(t, IsDevelopment())
	Conf.Mode = "production"
	assert.False(t, IsDevelopment())
}
