package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/utils"
)

// Settings is the optional YAML settings file. Zero values mean "use the default".
type Settings struct {
	Timezone      string `yaml:"timezone,omitempty"` // IANA name or "Local"
	Notifications bool   `yaml:"notifications"`
	AutoBackup    bool   `yaml:"auto_backup"`
	MaxBackups    int    `yaml:"max_backups,omitempty"`
	PetType       string `yaml:"pet_type,omitempty"`
	PetName       string `yaml:"pet_name,omitempty"`
	UserName      string `yaml:"user_name,omitempty"`
}

func Default() Settings {
	return Settings{
		Timezone:      "Local",
		Notifications: true,
		AutoBackup:    true,
		MaxBackups:    constants.MaxBackups,
	}
}

// DefaultPath returns ~/.config/routinely/config.yaml.
func DefaultPath() (string, error) {
	dbPath, err := utils.ExpandHome(constants.DefaultConfigPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(dbPath), constants.DefaultSettingsFile), nil
}

// Load reads the settings file at path. A missing file yields the defaults;
// a malformed one is an error.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if s.Timezone == "" {
		s.Timezone = "Local"
	}
	if s.MaxBackups == 0 {
		s.MaxBackups = constants.MaxBackups
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path, creating the parent directory.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func (s Settings) Validate() error {
	if !utils.ValidateTimezone(s.Timezone) {
		return fmt.Errorf("unknown timezone %q", s.Timezone)
	}
	if s.MaxBackups < 0 {
		return fmt.Errorf("max_backups must be >= 0, got %d", s.MaxBackups)
	}
	return nil
}

// Clock returns a clock reporting wall time in the configured timezone.
func (s Settings) Clock() (utils.Clock, error) {
	return utils.ClockInTimezone(s.Timezone)
}
