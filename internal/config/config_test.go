package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
}

func TestInit_WithDefaults(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(DefaultConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"log_level", "info"},
		{"log_target", "stdout"},
		{"max_rate_limit", 192000},
		{"max_channels_limit", 8},
		{"is_render", true},
		{"rate", 48000},
		{"valid_bits", 16},
		{"frame_bytes", 4},
		{"channels", 2},
		{"buffer_bytes", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := viper.Get(tt.key)
			if got != tt.expected {
				t.Errorf("viper.Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestInit_CreatesConfigIfMissing(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, ".config", AppName, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Init() did not create config file at %s", configPath)
	}
}

func TestInit_ReadsLocalConfigFirst(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	xdgConfigDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.MkdirAll(xdgConfigDir, 0755); err != nil {
		t.Fatalf("failed to create XDG config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(xdgConfigDir, "config.yaml"), []byte("rate: 44100"), 0644); err != nil {
		t.Fatalf("failed to write XDG config: %v", err)
	}

	origDir, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Logf("failed to restore dir: %v", err)
		}
	}()

	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("rate: 96000"), 0644); err != nil {
		t.Fatalf("failed to write local config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetInt("rate"); got != 96000 {
		t.Errorf("viper.GetInt(rate) = %d, want 96000 (local config)", got)
	}
}

func TestGet_ReturnsSettings(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(DefaultConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if settings.LogLevel != "info" {
		t.Errorf("Settings.LogLevel = %q, want %q", settings.LogLevel, "info")
	}
	if settings.Rate != 48000 {
		t.Errorf("Settings.Rate = %d, want 48000", settings.Rate)
	}
	if settings.Channels != 2 {
		t.Errorf("Settings.Channels = %d, want 2", settings.Channels)
	}
	if len(settings.RateVariants) == 0 {
		t.Error("Settings.RateVariants should not be empty")
	}
}

func TestGet_AllFields(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	customConfig := `log_level: "debug"
log_target: "stdout"
rate_variants: [48000]
channel_variants: [2]
max_rate_limit: 96000
max_channels_limit: 2
device_id: "1"
is_render: false
rate: 48000
valid_bits: 24
frame_bytes: 8
channels: 2
buffer_bytes: 32768
`

	configDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(customConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if settings.LogLevel != "debug" {
		t.Errorf("Settings.LogLevel = %q, want %q", settings.LogLevel, "debug")
	}
	if settings.DeviceID != "1" {
		t.Errorf("Settings.DeviceID = %q, want %q", settings.DeviceID, "1")
	}
	if settings.IsRender != false {
		t.Errorf("Settings.IsRender = %v, want false", settings.IsRender)
	}
	if settings.ValidBits != 24 {
		t.Errorf("Settings.ValidBits = %d, want 24", settings.ValidBits)
	}
	if settings.FrameBytes != 8 {
		t.Errorf("Settings.FrameBytes = %d, want 8", settings.FrameBytes)
	}
	if settings.BufferBytes != 32768 {
		t.Errorf("Settings.BufferBytes = %d, want 32768", settings.BufferBytes)
	}
}

func TestEnsureConfigExists_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config")

	if err := ensureConfigExists(configPath); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("ensureConfigExists() did not create %s", configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != DefaultConfig {
		t.Errorf("config content does not match DefaultConfig")
	}
}

func TestEnsureConfigExists_DoesNotOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := tmpDir

	configFile := filepath.Join(configPath, "config.yaml")
	existingContent := "existing: true"
	if err := os.WriteFile(configFile, []byte(existingContent), 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	if err := ensureConfigExists(configPath); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != existingContent {
		t.Errorf("ensureConfigExists() overwrote existing config")
	}
}

func TestConstants(t *testing.T) {
	if AppName != "wasapimixer" {
		t.Errorf("AppName = %q, want %q", AppName, "wasapimixer")
	}
	if ConfigType != "yaml" {
		t.Errorf("ConfigType = %q, want %q", ConfigType, "yaml")
	}
}

func TestInit_InvalidConfigFile(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	invalidYAML := "invalid: yaml: content: [[["
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write invalid config: %v", err)
	}

	if err := Init(); err == nil {
		t.Error("Init() should return error for invalid YAML")
	}
}

// validSettings returns a Settings struct with all valid values.
func validSettings() *Settings {
	return &Settings{
		LogLevel:         "info",
		LogTarget:        "stdout",
		RateVariants:     []int{44100, 48000},
		ChannelVariants:  []int{1, 2},
		MaxRateLimit:     192000,
		MaxChannelsLimit: 8,
		DeviceID:         "",
		IsRender:         true,
		Rate:             48000,
		ValidBits:        16,
		FrameBytes:       4,
		Channels:         2,
		BufferBytes:      65536,
	}
}

func TestSettings_Validate_ValidSettings(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for valid settings", err)
	}
}

func TestSettings_Validate_LogLevel(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"trace", false}, {"debug", false}, {"info", false}, {"warn", false}, {"error", false},
		{"", true}, {"verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			s := validSettings()
			s.LogLevel = tt.level
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_Rate(t *testing.T) {
	tests := []struct {
		rate    int
		wantErr bool
	}{
		{7999, true}, {8000, false}, {48000, false}, {192000, false}, {192001, true},
	}
	for _, tt := range tests {
		s := validSettings()
		s.Rate = tt.rate
		err := s.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("rate=%d: Validate() error = %v, wantErr %v", tt.rate, err, tt.wantErr)
		}
	}
}

func TestSettings_Validate_ValidBits(t *testing.T) {
	tests := []struct {
		bits    int
		wantErr bool
	}{
		{16, false}, {24, false}, {32, false}, {8, true}, {20, true},
	}
	for _, tt := range tests {
		s := validSettings()
		s.ValidBits = tt.bits
		err := s.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("valid_bits=%d: Validate() error = %v, wantErr %v", tt.bits, err, tt.wantErr)
		}
	}
}

func TestSettings_Validate_Channels(t *testing.T) {
	s := validSettings()
	s.Channels = 0
	if err := s.Validate(); err == nil {
		t.Error("Validate() should error for channels=0")
	}

	s = validSettings()
	s.Channels = s.MaxChannelsLimit + 1
	if err := s.Validate(); err == nil {
		t.Error("Validate() should error for channels exceeding max_channels_limit")
	}
}

func TestSettings_Validate_FrameBytesTooSmall(t *testing.T) {
	s := validSettings()
	s.Channels = 2
	s.ValidBits = 24
	s.FrameBytes = 4 // needs at least 2*3=6 bytes
	if err := s.Validate(); err == nil {
		t.Error("Validate() should error when frame_bytes is too small for channels*validbits")
	}
}

func TestSettings_Validate_BufferBytesTooSmall(t *testing.T) {
	s := validSettings()
	s.BufferBytes = 512
	if err := s.Validate(); err == nil {
		t.Error("Validate() should error for buffer_bytes < 1024")
	}
}

func TestSettings_Validate_MultipleErrors(t *testing.T) {
	s := &Settings{
		LogLevel:         "bogus",
		LogTarget:        "",
		RateVariants:     nil,
		ChannelVariants:  nil,
		MaxRateLimit:     0,
		MaxChannelsLimit: 0,
		Rate:             0,
		ValidBits:        0,
		Channels:         0,
		FrameBytes:       0,
		BufferBytes:      0,
	}

	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() should return error for multiple invalid fields")
	}

	errStr := err.Error()
	expectedSubstrings := []string{
		"log_level",
		"log_target",
		"rate_variants",
		"channel_variants",
		"max_rate_limit",
		"max_channels_limit",
		"valid_bits",
		"buffer_bytes",
	}
	for _, substr := range expectedSubstrings {
		if !contains(errStr, substr) {
			t.Errorf("Validate() error should mention %q, got: %v", substr, errStr)
		}
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
