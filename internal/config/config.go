package config

import (
	"errors"
	"time"
)

// Config is the top-level configuration struct for agenthours.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Author   string         `mapstructure:"author"`
	Logs     LogsConfig     `mapstructure:"logs"`
	Segment  SegmentConfig  `mapstructure:"segment"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Outliers OutlierConfig  `mapstructure:"outliers"`
	Paths    PathsConfig    `mapstructure:"paths"`
}

// LogsConfig locates the AI assistant log sources.
type LogsConfig struct {
	// ClaudeDir is the Claude Code state directory (default ~/.claude).
	ClaudeDir string `mapstructure:"claude_dir"`
	// CodexDir is the Codex state directory (default ~/.codex).
	CodexDir string `mapstructure:"codex_dir"`
	// Bundle is a directory of per-machine log snapshots; when set it
	// supersedes ClaudeDir and CodexDir.
	Bundle string `mapstructure:"bundle"`
}

// SegmentConfig holds gap-clustering thresholds.
type SegmentConfig struct {
	SessionGap time.Duration `mapstructure:"session_gap"`
	SittingGap time.Duration `mapstructure:"sitting_gap"`
	LeadIn     time.Duration `mapstructure:"lead_in"`
}

// TrackingConfig describes how tool adoption is detected per repository.
type TrackingConfig struct {
	// Dir is the tracked directory whose first committed appearance marks
	// adoption (default ".beads").
	Dir string `mapstructure:"dir"`
	// HubName is the repository basename that is hub-managed from HubStart.
	HubName string `mapstructure:"hub_name"`
	// HubMarker is a marker file whose presence makes a repo hub-managed
	// HubDelayDays after HubStart.
	HubMarker string `mapstructure:"hub_marker"`
	// HubStart is the date (YYYY-MM-DD) the hub repo itself went live.
	HubStart string `mapstructure:"hub_start"`
	// HubDelayDays is the adoption lag for marker-file repos.
	HubDelayDays int `mapstructure:"hub_delay_days"`
}

// OutlierConfig holds robust outlier filter settings.
type OutlierConfig struct {
	// Method selects the filter: "none" or "mad-log-delta".
	Method string `mapstructure:"method"`
	// Z is the robust z-score threshold.
	Z float64 `mapstructure:"z"`
}

// PathsConfig holds path remapping and ignore rules for repo resolution.
type PathsConfig struct {
	// Remap substitutes exact path prefixes before resolution.
	Remap map[string]string `mapstructure:"remap"`
	// Ignore drops any cwd equal to or under one of these prefixes.
	Ignore []string `mapstructure:"ignore"`
	// IgnoreProjects drops sessions by project basename.
	IgnoreProjects []string `mapstructure:"ignore_projects"`
}

// Default segmentation and filter values.
const (
	DefaultSessionGap   = 5 * time.Minute
	DefaultSittingGap   = 20 * time.Minute
	DefaultLeadIn       = 3 * time.Minute
	DefaultTrackingDir  = ".beads"
	DefaultHubName      = "beadhub"
	DefaultHubMarker    = ".beadhub"
	DefaultHubStart     = "2025-11-30"
	DefaultHubDelayDays = 14
	DefaultOutlierZ     = 3.5
	DefaultOutlierMode  = "mad-log-delta"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidSessionGap indicates a non-positive session gap.
	ErrInvalidSessionGap = errors.New("segment.session_gap must be positive")
	// ErrInvalidSittingGap indicates a non-positive sitting gap.
	ErrInvalidSittingGap = errors.New("segment.sitting_gap must be positive")
	// ErrInvalidLeadIn indicates a negative lead-in.
	ErrInvalidLeadIn = errors.New("segment.lead_in must be non-negative")
	// ErrGapOrder indicates the sitting gap is shorter than the session gap.
	ErrGapOrder = errors.New("segment.sitting_gap must not be shorter than segment.session_gap")
	// ErrInvalidOutlierZ indicates a non-positive z threshold.
	ErrInvalidOutlierZ = errors.New("outliers.z must be positive")
	// ErrUnknownOutlierMethod indicates an unsupported outlier method.
	ErrUnknownOutlierMethod = errors.New("outliers.method must be none or mad-log-delta")
	// ErrInvalidHubStart indicates an unparseable hub start date.
	ErrInvalidHubStart = errors.New("tracking.hub_start must be YYYY-MM-DD")
	// ErrInvalidHubDelay indicates a negative hub adoption delay.
	ErrInvalidHubDelay = errors.New("tracking.hub_delay_days must be non-negative")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	segmentErr := c.validateSegment()
	if segmentErr != nil {
		return segmentErr
	}

	outlierErr := c.validateOutliers()
	if outlierErr != nil {
		return outlierErr
	}

	return c.validateTracking()
}

func (c *Config) validateSegment() error {
	if c.Segment.SessionGap <= 0 {
		return ErrInvalidSessionGap
	}

	if c.Segment.SittingGap <= 0 {
		return ErrInvalidSittingGap
	}

	if c.Segment.LeadIn < 0 {
		return ErrInvalidLeadIn
	}

	if c.Segment.SittingGap < c.Segment.SessionGap {
		return ErrGapOrder
	}

	return nil
}

func (c *Config) validateOutliers() error {
	if c.Outliers.Method != "none" && c.Outliers.Method != "mad-log-delta" {
		return ErrUnknownOutlierMethod
	}

	if c.Outliers.Z <= 0 {
		return ErrInvalidOutlierZ
	}

	return nil
}

func (c *Config) validateTracking() error {
	if c.Tracking.HubDelayDays < 0 {
		return ErrInvalidHubDelay
	}

	if c.Tracking.HubStart != "" {
		_, err := time.Parse(time.DateOnly, c.Tracking.HubStart)
		if err != nil {
			return ErrInvalidHubStart
		}
	}

	return nil
}

// HubStartTime returns the parsed hub start date.
// Validate must have accepted the config first.
func (c *Config) HubStartTime() time.Time {
	t, _ := time.Parse(time.DateOnly, c.Tracking.HubStart)

	return t
}
