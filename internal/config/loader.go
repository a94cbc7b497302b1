package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".agenthours"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for agenthours settings.
const envPrefix = "AGENTHOURS"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	home, _ := os.UserHomeDir()

	viperCfg.SetDefault("logs.claude_dir", home+"/.claude")
	viperCfg.SetDefault("logs.codex_dir", home+"/.codex")
	viperCfg.SetDefault("logs.bundle", "")

	viperCfg.SetDefault("segment.session_gap", DefaultSessionGap)
	viperCfg.SetDefault("segment.sitting_gap", DefaultSittingGap)
	viperCfg.SetDefault("segment.lead_in", DefaultLeadIn)

	viperCfg.SetDefault("tracking.dir", DefaultTrackingDir)
	viperCfg.SetDefault("tracking.hub_name", DefaultHubName)
	viperCfg.SetDefault("tracking.hub_marker", DefaultHubMarker)
	viperCfg.SetDefault("tracking.hub_start", DefaultHubStart)
	viperCfg.SetDefault("tracking.hub_delay_days", DefaultHubDelayDays)

	viperCfg.SetDefault("outliers.method", DefaultOutlierMode)
	viperCfg.SetDefault("outliers.z", DefaultOutlierZ)
}
