package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. HUDDLE_CHANNEL.
const EnvPrefix = "huddle"

var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("name", func(fl validator.FieldLevel) bool {
		return ValidName(fl.Field().String())
	})
	return v
}

// ValidName reports whether s may be used as a session or channel name.
func ValidName(s string) bool {
	return nameRegexp.MatchString(s)
}

// Config represents the global ~/.huddle/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session" split_words:"true" validate:"omitempty,name"`
	Channel        string `toml:"channel" split_words:"true" validate:"required,name"`
	DisplayName    string `toml:"display_name" split_words:"true" validate:"max=64"`
	LogLevel       string `toml:"log_level" split_words:"true" validate:"oneof=debug info warn error"`
	Timing         Timing `toml:"timing" split_words:"true"`
}

// Timing holds the protocol intervals.
type Timing struct {
	Heartbeat      time.Duration `toml:"heartbeat" split_words:"true" validate:"gt=0"`
	PresenceStale  time.Duration `toml:"presence_stale" split_words:"true" validate:"gtfield=Heartbeat"`
	TypingDebounce time.Duration `toml:"typing_debounce" split_words:"true" validate:"gt=0"`
	ExpireSweep    time.Duration `toml:"expire_sweep" split_words:"true" validate:"gt=0"`
	OnlineWithin   time.Duration `toml:"online_within" split_words:"true" validate:"gt=0"`
}

// DefaultTiming returns the stock protocol intervals.
func DefaultTiming() Timing {
	return Timing{
		Heartbeat:      100 * time.Millisecond,
		PresenceStale:  5 * time.Second,
		TypingDebounce: time.Second,
		ExpireSweep:    2 * time.Second,
		OnlineWithin:   3 * time.Second,
	}
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		Channel:  "lobby",
		LogLevel: "info",
		Timing:   DefaultTiming(),
	}
}

// Load reads config from the given path on top of the defaults. Returns
// error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve builds the effective configuration: defaults, then the file at
// path if it exists, then HUDDLE_* environment overrides. The result is
// validated.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
