package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Author: "alice",
		Segment: SegmentConfig{
			SessionGap: 5 * time.Minute,
			SittingGap: 20 * time.Minute,
			LeadIn:     3 * time.Minute,
		},
		Tracking: TrackingConfig{
			Dir:          ".beads",
			HubName:      "beadhub",
			HubMarker:    ".beadhub",
			HubStart:     "2025-11-30",
			HubDelayDays: 14,
		},
		Outliers: OutlierConfig{
			Method: "mad-log-delta",
			Z:      3.5,
		},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}, wantErr: nil},
		{
			name:    "zero_session_gap",
			mutate:  func(c *Config) { c.Segment.SessionGap = 0 },
			wantErr: ErrInvalidSessionGap,
		},
		{
			name:    "zero_sitting_gap",
			mutate:  func(c *Config) { c.Segment.SittingGap = 0 },
			wantErr: ErrInvalidSittingGap,
		},
		{
			name:    "negative_lead_in",
			mutate:  func(c *Config) { c.Segment.LeadIn = -time.Second },
			wantErr: ErrInvalidLeadIn,
		},
		{
			name:    "sitting_shorter_than_session",
			mutate:  func(c *Config) { c.Segment.SittingGap = time.Minute },
			wantErr: ErrGapOrder,
		},
		{
			name:    "unknown_outlier_method",
			mutate:  func(c *Config) { c.Outliers.Method = "iqr" },
			wantErr: ErrUnknownOutlierMethod,
		},
		{
			name:    "zero_outlier_z",
			mutate:  func(c *Config) { c.Outliers.Z = 0 },
			wantErr: ErrInvalidOutlierZ,
		},
		{
			name:    "bad_hub_start",
			mutate:  func(c *Config) { c.Tracking.HubStart = "November 30" },
			wantErr: ErrInvalidHubStart,
		},
		{
			name:    "negative_hub_delay",
			mutate:  func(c *Config) { c.Tracking.HubDelayDays = -1 },
			wantErr: ErrInvalidHubDelay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agenthours.yaml")

	content := `author: alice
segment:
  session_gap: 10m
  sitting_gap: 30m
tracking:
  hub_start: "2025-12-01"
paths:
  remap:
    /mnt/old: /home/alice
  ignore:
    - /tmp
  ignore_projects:
    - scratch
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Author)
	assert.Equal(t, 10*time.Minute, cfg.Segment.SessionGap)
	assert.Equal(t, 30*time.Minute, cfg.Segment.SittingGap)
	assert.Equal(t, DefaultLeadIn, cfg.Segment.LeadIn)
	assert.Equal(t, ".beads", cfg.Tracking.Dir)
	assert.Equal(t, "2025-12-01", cfg.Tracking.HubStart)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), cfg.HubStartTime())
	assert.Equal(t, "/home/alice", cfg.Paths.Remap["/mnt/old"])
	assert.Equal(t, []string{"/tmp"}, cfg.Paths.Ignore)
	assert.Equal(t, []string{"scratch"}, cfg.Paths.IgnoreProjects)
	assert.Equal(t, "mad-log-delta", cfg.Outliers.Method)
	assert.InDelta(t, 3.5, cfg.Outliers.Z, 0.0001)
}
