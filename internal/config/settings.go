package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "bflb-flash"
	configFile = "config.yaml"

	// SDKRootEnvVar is consulted when no sdk_root is configured.
	SDKRootEnvVar = "BOUFFALOLAB_SDK_ROOT"

	// DefaultBaudrate is the UART speed used by the vendor flashing tools.
	DefaultBaudrate = 2000000

	// DefaultTimeout bounds a single vendor tool run.
	DefaultTimeout = 10 * time.Minute
)

// Settings represents the entire user configuration file.
type Settings struct {
	Version    int                      `yaml:"version"`
	SDKRoot    string                   `yaml:"sdk_root,omitempty"`    // IoT SDK install directory
	MatterRoot string                   `yaml:"matter_root,omitempty"` // Matter checkout holding the bouffalo sdk tools
	Python     string                   `yaml:"python,omitempty"`      // Interpreter for ota_image_tool.py
	Port       string                   `yaml:"port,omitempty"`        // Default serial port
	Baudrate   int                      `yaml:"baudrate,omitempty"`    // Default UART baudrate
	Timeout    string                   `yaml:"timeout,omitempty"`     // Tool timeout, time.ParseDuration syntax
	Chips      map[string]*ChipDefaults `yaml:"chips,omitempty"`       // Keyed by chip name
}

// ChipDefaults are per-chip option defaults.
type ChipDefaults struct {
	Xtal  string `yaml:"xtal,omitempty"`
	Boot2 string `yaml:"boot2,omitempty"`
}

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:  1,
		Baudrate: DefaultBaudrate,
		Chips:    make(map[string]*ChipDefaults),
	}
}

var (
	globalSettings     *Settings
	globalSettingsOnce sync.Once
	globalSettingsErr  error

	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load loads the global settings from the default location.
// A missing file yields default settings. Thread-safe.
func Load() (*Settings, error) {
	globalSettingsOnce.Do(func() {
		var path string
		path, globalSettingsErr = GetConfigPath()
		if globalSettingsErr != nil {
			return
		}
		globalSettings, globalSettingsErr = LoadFrom(path)
	})
	return globalSettings, globalSettingsErr
}

// LoadFrom reads settings from path. A missing file yields default settings.
func LoadFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings := NewSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if settings.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", settings.Version)
	}
	if settings.Chips == nil {
		settings.Chips = make(map[string]*ChipDefaults)
	}
	if settings.Timeout != "" {
		if _, err := time.ParseDuration(settings.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout %q in config file: %w", settings.Timeout, err)
		}
	}

	return settings, nil
}

// Save writes the settings to the default location.
func (s *Settings) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return s.SaveTo(path)
}

// SaveTo writes the settings to path atomically.
func (s *Settings) SaveTo(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bflb-flash configuration file
# Command line flags override every value in this file.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Keys lists the settable keys for Set.
func Keys() []string {
	return []string{"sdk_root", "matter_root", "python", "port", "baudrate", "timeout", "chips.<chip>.xtal", "chips.<chip>.boot2"}
}

// Set assigns a value by key. An empty value clears the key.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "sdk_root":
		s.SDKRoot = value
	case "matter_root":
		s.MatterRoot = value
	case "python":
		s.Python = value
	case "port":
		s.Port = value
	case "baudrate":
		if value == "" {
			s.Baudrate = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid baudrate %q", value)
		}
		s.Baudrate = n
	case "timeout":
		if value != "" {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout %q: %w", value, err)
			}
		}
		s.Timeout = value
	default:
		parts := strings.Split(key, ".")
		if len(parts) != 3 || parts[0] != "chips" || parts[1] == "" {
			return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
		}
		chip := s.EnsureChip(parts[1])
		switch parts[2] {
		case "xtal":
			chip.Xtal = value
		case "boot2":
			chip.Boot2 = value
		default:
			return fmt.Errorf("unknown chip setting %q (valid: xtal, boot2)", parts[2])
		}
	}
	return nil
}

// EnsureChip returns the defaults entry for chip, creating it if needed.
func (s *Settings) EnsureChip(name string) *ChipDefaults {
	if s.Chips == nil {
		s.Chips = make(map[string]*ChipDefaults)
	}
	if chip, ok := s.Chips[name]; ok {
		return chip
	}
	chip := &ChipDefaults{}
	s.Chips[name] = chip
	return chip
}

// Chip returns the defaults for a chip; the zero value when none are set.
func (s *Settings) Chip(name string) ChipDefaults {
	if chip, ok := s.Chips[name]; ok && chip != nil {
		return *chip
	}
	return ChipDefaults{}
}

// ResolveSDKRoot returns sdk_root, falling back to BOUFFALOLAB_SDK_ROOT.
func (s *Settings) ResolveSDKRoot() string {
	if s.SDKRoot != "" {
		return s.SDKRoot
	}
	return os.Getenv(SDKRootEnvVar)
}

// ResolveMatterRoot returns matter_root, falling back to cwd.
func (s *Settings) ResolveMatterRoot(cwd string) string {
	if s.MatterRoot != "" {
		return s.MatterRoot
	}
	return cwd
}

// ResolvePython returns the interpreter used for Matter scripts.
func (s *Settings) ResolvePython() string {
	if s.Python != "" {
		return s.Python
	}
	return "python3"
}

// ResolveBaudrate returns the configured baudrate or DefaultBaudrate.
func (s *Settings) ResolveBaudrate() int {
	if s.Baudrate > 0 {
		return s.Baudrate
	}
	return DefaultBaudrate
}

// ResolveTimeout returns the configured tool timeout or DefaultTimeout.
func (s *Settings) ResolveTimeout() time.Duration {
	if d, err := time.ParseDuration(s.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

// Describe renders the settings as sorted key/value pairs.
func (s *Settings) Describe() map[string]string {
	out := map[string]string{
		"sdk_root":    s.SDKRoot,
		"matter_root": s.MatterRoot,
		"python":      s.ResolvePython(),
		"port":        s.Port,
		"baudrate":    strconv.Itoa(s.ResolveBaudrate()),
		"timeout":     s.ResolveTimeout().String(),
	}
	names := make([]string, 0, len(s.Chips))
	for name := range s.Chips {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		chip := s.Chips[name]
		if chip == nil {
			continue
		}
		if chip.Xtal != "" {
			out["chips."+name+".xtal"] = chip.Xtal
		}
		if chip.Boot2 != "" {
			out["chips."+name+".boot2"] = chip.Boot2
		}
	}
	return out
}
