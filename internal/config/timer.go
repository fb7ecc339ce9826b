package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultSettingsPath = "quiz_config.json"

	DefaultTotalTimeSeconds = 300
	MinTotalTimeSeconds     = 60
	MaxTotalTimeSeconds     = 7200
)

// TimerSettings is the user-editable quiz timer configuration persisted as
// JSON next to the database.
type TimerSettings struct {
	TotalTimeSeconds int  `mapstructure:"total_time_seconds"`
	ShowTimer        bool `mapstructure:"show_timer"`
	AutoSubmit       bool `mapstructure:"auto_submit"`
}

func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		TotalTimeSeconds: DefaultTotalTimeSeconds,
		ShowTimer:        true,
		AutoSubmit:       true,
	}
}

func (s TimerSettings) TotalTime() time.Duration {
	return time.Duration(s.TotalTimeSeconds) * time.Second
}

func (s TimerSettings) Validate() error {
	if s.TotalTimeSeconds < MinTotalTimeSeconds || s.TotalTimeSeconds > MaxTotalTimeSeconds {
		return fmt.Errorf("total_time_seconds must be between %d and %d, got %d",
			MinTotalTimeSeconds, MaxTotalTimeSeconds, s.TotalTimeSeconds)
	}
	return nil
}

// LoadTimerSettings reads path, filling absent keys with defaults. A missing
// file yields the defaults. An unreadable or out-of-range file returns the
// defaults together with the error.
func LoadTimerSettings(path string) (TimerSettings, error) {
	defaults := DefaultTimerSettings()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("stat timer settings: %w", err)
	}

	v := newTimerViper(defaults)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return defaults, fmt.Errorf("read timer settings from %s: %w", path, err)
	}

	var s TimerSettings
	if err := v.Unmarshal(&s); err != nil {
		return defaults, fmt.Errorf("unmarshal timer settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return defaults, err
	}
	return s, nil
}

// SaveTimerSettings validates s and writes it to path, which must have a
// .json extension.
func SaveTimerSettings(path string, s TimerSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return fmt.Errorf("timer settings path %q must end in .json", path)
	}

	v := newTimerViper(s)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write timer settings to %s: %w", path, err)
	}
	return nil
}

func newTimerViper(s TimerSettings) *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("total_time_seconds", s.TotalTimeSeconds)
	v.SetDefault("show_timer", s.ShowTimer)
	v.SetDefault("auto_submit", s.AutoSubmit)
	return v
}
