package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "QUIZ"

// Config holds process-level settings. Every field can be overridden with a
// QUIZ_<KEY> environment variable, e.g. QUIZ_DATABASE_PATH.
type Config struct {
	DatabasePath  string `mapstructure:"database_path"`
	SettingsPath  string `mapstructure:"settings_path"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	// SeedSamples loads a few sample questions into an empty bank.
	SeedSamples      bool `mapstructure:"seed_samples"`
	QuestionsPerQuiz int  `mapstructure:"questions_per_quiz"`
}

func Default() Config {
	return Config{
		DatabasePath:     "quiz_app.db",
		SettingsPath:     DefaultSettingsPath,
		LogLevel:         "info",
		LogFile:          "quiz_desk.log",
		AdminUsername:    "admin",
		AdminPassword:    "admin123",
		SeedSamples:      true,
		QuestionsPerQuiz: 10,
	}
}

// Load merges the defaults with the environment.
func Load() (Config, error) {
	cfg := Default()

	v := viper.New()
	m := make(map[string]any)
	if err := mapstructure.Decode(cfg, &m); err != nil {
		return Config{}, fmt.Errorf("mapstructure: %w", err)
	}
	if err := v.MergeConfigMap(m); err != nil {
		return Config{}, fmt.Errorf("merge config map: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.QuestionsPerQuiz < 1 || c.QuestionsPerQuiz > 50 {
		return fmt.Errorf("questions_per_quiz must be between 1 and 50, got %d", c.QuestionsPerQuiz)
	}
	return nil
}

func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", level, err)
	}
	return l, nil
}
