// Package config resolves the runtime configuration once at startup.
//
// Resolution order is defaults, then an optional config file, then
// environment variables. Handlers never call os.Getenv themselves; secrets
// travel through the typed Runtime struct.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Secrets holds the per-service API credentials.
type Secrets struct {
	Weather    string `mapstructure:"weather_api_key"`
	Event      string `mapstructure:"event_api_key"`
	News       string `mapstructure:"news_api_key"`
	GoogleMaps string `mapstructure:"google_maps_api_key"`
	Sports     string `mapstructure:"sports_api_key"`
	Soccer     string `mapstructure:"soccer_api_key"`
	Finance1   string `mapstructure:"finance_api_key_1"`
	Finance2   string `mapstructure:"finance_api_key_2"`
}

// Runtime captures user-configurable settings shared across the binary.
type Runtime struct {
	IntentsPath       string        `mapstructure:"intents_path"`
	ProfilePath       string        `mapstructure:"profile_path"`
	CalendarTokenPath string        `mapstructure:"calendar_token_path"`
	LogLevel          string        `mapstructure:"log_level"`
	Language          string        `mapstructure:"language"`
	MatchThreshold    float64       `mapstructure:"match_threshold"`
	ListenTimeout     time.Duration `mapstructure:"listen_timeout"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	FamilyInterval    time.Duration `mapstructure:"family_interval"`
	Secrets           Secrets       `mapstructure:",squash"`
}

const (
	DefaultMatchThreshold = 0.7
	DefaultListenTimeout  = 60 * time.Second
	DefaultHTTPTimeout    = 10 * time.Second
	DefaultTickInterval   = 5 * time.Minute
	DefaultFamilyInterval = 15 * time.Minute
	DefaultLanguage       = "en-US"
)

type loadOptions struct {
	configFile string
	envLookup  func(string) (string, bool)
}

// Option customizes Load.
type Option func(*loadOptions)

// WithConfigFile points Load at an explicit config file.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnv replaces the environment lookup, for tests.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// Load resolves the runtime configuration.
func Load(opts ...Option) (Runtime, error) {
	options := loadOptions{envLookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&options)
	}

	v := viper.New()
	v.SetDefault("intents_path", "configs/intents.json")
	v.SetDefault("profile_path", "configs/profile.json")
	v.SetDefault("calendar_token_path", defaultTokenPath())
	v.SetDefault("log_level", "INFO")
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("match_threshold", DefaultMatchThreshold)
	v.SetDefault("listen_timeout", DefaultListenTimeout)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("tick_interval", DefaultTickInterval)
	v.SetDefault("family_interval", DefaultFamilyInterval)

	if options.configFile != "" {
		v.SetConfigFile(options.configFile)
		if err := v.ReadInConfig(); err != nil {
			return Runtime{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Runtime
	if err := v.Unmarshal(&cfg); err != nil {
		return Runtime{}, fmt.Errorf("decoding config: %w", err)
	}

	applyEnv(&cfg, options.envLookup)

	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 1 {
		return Runtime{}, fmt.Errorf("match_threshold %v outside [0,1]", cfg.MatchThreshold)
	}
	return cfg, nil
}

// applyEnv layers environment variables over file values. The variable names
// are fixed by the deployment contract, so they are bound explicitly instead
// of through automatic prefix matching.
func applyEnv(cfg *Runtime, lookup func(string) (string, bool)) {
	set := func(target *string, key string) {
		if val, ok := lookup(key); ok && val != "" {
			*target = val
		}
	}
	set(&cfg.Secrets.Weather, "WEATHER_API_KEY")
	set(&cfg.Secrets.Event, "EVENT_API_KEY")
	set(&cfg.Secrets.News, "NEWS_API_KEY")
	set(&cfg.Secrets.GoogleMaps, "GOOGLE_MAPS_API_KEY")
	set(&cfg.Secrets.Sports, "SPORTS_API_KEY")
	set(&cfg.Secrets.Soccer, "SOCCER_API_KEY")
	set(&cfg.Secrets.Finance1, "FINANCE_API_KEY_1")
	set(&cfg.Secrets.Finance2, "FINANCE_API_KEY_2")
	set(&cfg.LogLevel, "ARIA_LOG_LEVEL")
	set(&cfg.IntentsPath, "ARIA_INTENTS_PATH")
	set(&cfg.ProfilePath, "ARIA_PROFILE_PATH")
}

// MissingSecrets lists the credential env names that resolved empty.
// The caller decides which of them are fatal for the requested run mode.
func (r Runtime) MissingSecrets() []string {
	var missing []string
	for _, pair := range []struct {
		name, value string
	}{
		{"WEATHER_API_KEY", r.Secrets.Weather},
		{"EVENT_API_KEY", r.Secrets.Event},
		{"NEWS_API_KEY", r.Secrets.News},
		{"GOOGLE_MAPS_API_KEY", r.Secrets.GoogleMaps},
		{"SPORTS_API_KEY", r.Secrets.Sports},
		{"SOCCER_API_KEY", r.Secrets.Soccer},
		{"FINANCE_API_KEY_1", r.Secrets.Finance1},
	} {
		if pair.value == "" {
			missing = append(missing, pair.name)
		}
	}
	return missing
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aria-calendar-token.json"
	}
	return home + "/.aria-calendar-token.json"
}
