// Package config loads cmd/wasapimixer's settings the way the teacher
// loads cwdecoder's: spf13/viper reads a YAML file (current directory,
// then the XDG config dir), spf13/cobra flags override it, and the
// result is validated into a typed Settings struct before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName    = "wasapimixer"
	ConfigType = "yaml"

	DefaultConfig = `# wasapimixer configuration

# Logging (bridge.Init's log_level/log_target)
log_level: "info"     # trace, debug, info, warn, error
log_target: "stdout"  # "stdout" or a file path

# Format Catalog generation (bridge.Init's rate_variants/channel_variants)
rate_variants: [44100, 48000, 88200, 96000, 176400, 192000]
channel_variants: [1, 2, 4, 6, 8]

# Probing limits (bridge.Init's max_rate_limit/max_channels_limit)
max_rate_limit: 192000
max_channels_limit: 8

# Demo host device selection
device_id: ""     # empty selects the first device in the chosen direction
is_render: true   # true streams a tone out; false records to a file
rate: 48000
valid_bits: 16
frame_bytes: 4
channels: 2
buffer_bytes: 65536
`
)

// Settings holds the validated configuration for cmd/wasapimixer and
// the bridge.Init call it makes on startup.
type Settings struct {
	LogLevel  string `mapstructure:"log_level"`
	LogTarget string `mapstructure:"log_target"`

	RateVariants    []int `mapstructure:"rate_variants"`
	ChannelVariants []int `mapstructure:"channel_variants"`

	MaxRateLimit     int `mapstructure:"max_rate_limit"`
	MaxChannelsLimit int `mapstructure:"max_channels_limit"`

	DeviceID    string `mapstructure:"device_id"`
	IsRender    bool   `mapstructure:"is_render"`
	Rate        int    `mapstructure:"rate"`
	ValidBits   int    `mapstructure:"valid_bits"`
	FrameBytes  int    `mapstructure:"frame_bytes"`
	Channels    int    `mapstructure:"channels"`
	BufferBytes int    `mapstructure:"buffer_bytes"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/wasapimixer/
func Init() error {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_target", "stdout")
	viper.SetDefault("rate_variants", []int{44100, 48000, 88200, 96000, 176400, 192000})
	viper.SetDefault("channel_variants", []int{1, 2, 4, 6, 8})
	viper.SetDefault("max_rate_limit", 192000)
	viper.SetDefault("max_channels_limit", 8)
	viper.SetDefault("device_id", "")
	viper.SetDefault("is_render", true)
	viper.SetDefault("rate", 48000)
	viper.SetDefault("valid_bits", 16)
	viper.SetDefault("frame_bytes", 4)
	viper.SetDefault("channels", 2)
	viper.SetDefault("buffer_bytes", 65536)

	viper.SetConfigType(ConfigType)
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings.
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all settings are within acceptable ranges.
func (s *Settings) Validate() error {
	var errs []error

	if !validLogLevels[s.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level must be one of trace, debug, info, warn, error, got %q", s.LogLevel))
	}
	if s.LogTarget == "" {
		errs = append(errs, errors.New("log_target must not be empty"))
	}
	if len(s.RateVariants) == 0 {
		errs = append(errs, errors.New("rate_variants must not be empty"))
	}
	if len(s.ChannelVariants) == 0 {
		errs = append(errs, errors.New("channel_variants must not be empty"))
	}
	if s.MaxRateLimit < 8000 || s.MaxRateLimit > 384000 {
		errs = append(errs, fmt.Errorf("max_rate_limit must be between 8000 and 384000 Hz, got %d", s.MaxRateLimit))
	}
	if s.MaxChannelsLimit < 1 || s.MaxChannelsLimit > 32 {
		errs = append(errs, fmt.Errorf("max_channels_limit must be between 1 and 32, got %d", s.MaxChannelsLimit))
	}
	if s.Rate < 8000 || s.Rate > s.MaxRateLimit {
		errs = append(errs, fmt.Errorf("rate must be between 8000 and max_rate_limit (%d), got %d", s.MaxRateLimit, s.Rate))
	}
	if s.ValidBits != 16 && s.ValidBits != 24 && s.ValidBits != 32 {
		errs = append(errs, fmt.Errorf("valid_bits must be one of 16, 24, 32, got %d", s.ValidBits))
	}
	if s.Channels < 1 || s.Channels > s.MaxChannelsLimit {
		errs = append(errs, fmt.Errorf("channels must be between 1 and max_channels_limit (%d), got %d", s.MaxChannelsLimit, s.Channels))
	}
	if s.Channels > 0 && s.FrameBytes < s.Channels*(s.ValidBits/8) {
		errs = append(errs, fmt.Errorf("frame_bytes (%d) is too small for %d channels at %d valid bits", s.FrameBytes, s.Channels, s.ValidBits))
	}
	if s.BufferBytes < 1024 {
		errs = append(errs, fmt.Errorf("buffer_bytes must be at least 1024, got %d", s.BufferBytes))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
