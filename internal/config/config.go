package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config contains all runtime settings for the assistant, read once at startup.
type Config struct {
	BindAddr         string
	MetricsNamespace string
	ShutdownTimeout  time.Duration
	AllowAnyOrigin   bool

	AssistantName     string
	UserName          string
	PreferredLanguage string
	WakePhrases       []string

	IdleTimeout         time.Duration
	WakeListenWindow    time.Duration
	CommandListenWindow time.Duration
	GraceWindow         time.Duration

	DataDir string

	SpeechProvider     string
	ListenCommand      string
	SpeakCommand       string
	MusicPlayerCommand string

	WeatherAPIKey string
	NewsAPIKey    string
}

// fileConfig mirrors the flat key set of the optional TOML config file.
type fileConfig struct {
	BindAddr           string   `toml:"bind_addr"`
	MetricsNamespace   string   `toml:"metrics_namespace"`
	AssistantName      string   `toml:"assistant_name"`
	UserName           string   `toml:"user_name"`
	PreferredLanguage  string   `toml:"preferred_language"`
	WakePhrases        []string `toml:"wake_phrases"`
	IdleTimeout        string   `toml:"idle_timeout"`
	GraceWindow        string   `toml:"grace_window"`
	DataDir            string   `toml:"data_dir"`
	SpeechProvider     string   `toml:"speech_provider"`
	ListenCommand      string   `toml:"listen_command"`
	SpeakCommand       string   `toml:"speak_command"`
	MusicPlayerCommand string   `toml:"music_player_command"`
	WeatherAPIKey      string   `toml:"weather_api_key"`
	NewsAPIKey         string   `toml:"news_api_key"`
}

// Load reads the optional TOML config file, layers environment variables on top,
// and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            ":8080",
		MetricsNamespace:    "nova",
		ShutdownTimeout:     15 * time.Second,
		AssistantName:       "Nova",
		PreferredLanguage:   "english",
		WakePhrases:         []string{"hey nova", "nova"},
		IdleTimeout:         30 * time.Second,
		WakeListenWindow:    3 * time.Second,
		CommandListenWindow: 5 * time.Second,
		GraceWindow:         10 * time.Second,
		DataDir:             "data",
		SpeechProvider:      "auto",
	}

	if err := applyFile(&cfg); err != nil {
		return Config{}, err
	}

	cfg.BindAddr = envOrDefault("NOVA_BIND_ADDR", cfg.BindAddr)
	cfg.MetricsNamespace = envOrDefault("NOVA_METRICS_NAMESPACE", cfg.MetricsNamespace)
	cfg.AssistantName = envOrDefault("NOVA_ASSISTANT_NAME", cfg.AssistantName)
	cfg.UserName = envOrDefault("NOVA_USER_NAME", cfg.UserName)
	cfg.PreferredLanguage = envOrDefault("NOVA_LANGUAGE", cfg.PreferredLanguage)
	cfg.DataDir = envOrDefault("NOVA_DATA_DIR", cfg.DataDir)
	cfg.SpeechProvider = envOrDefault("NOVA_SPEECH_PROVIDER", cfg.SpeechProvider)
	cfg.ListenCommand = envOrDefault("NOVA_LISTEN_COMMAND", cfg.ListenCommand)
	cfg.SpeakCommand = envOrDefault("NOVA_SPEAK_COMMAND", cfg.SpeakCommand)
	cfg.MusicPlayerCommand = envOrDefault("NOVA_MUSIC_PLAYER", cfg.MusicPlayerCommand)
	cfg.WeatherAPIKey = envOrDefault("NOVA_OPENWEATHERMAP_API_KEY", cfg.WeatherAPIKey)
	cfg.NewsAPIKey = envOrDefault("NOVA_NEWSAPI_API_KEY", cfg.NewsAPIKey)

	if phrases := envTrimSpace("NOVA_WAKE_PHRASES"); phrases != "" {
		cfg.WakePhrases = splitPhrases(phrases)
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("NOVA_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.IdleTimeout, err = durationFromEnv("NOVA_IDLE_TIMEOUT", cfg.IdleTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WakeListenWindow, err = durationFromEnv("NOVA_WAKE_LISTEN_WINDOW", cfg.WakeListenWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.CommandListenWindow, err = durationFromEnv("NOVA_COMMAND_LISTEN_WINDOW", cfg.CommandListenWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.GraceWindow, err = durationFromEnv("NOVA_GRACE_WINDOW", cfg.GraceWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("NOVA_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	normalizeWakePhrases(&cfg)

	if len(cfg.WakePhrases) == 0 {
		return Config{}, fmt.Errorf("at least one wake phrase is required")
	}
	if cfg.IdleTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("NOVA_IDLE_TIMEOUT must be at least 5s")
	}
	if cfg.GraceWindow <= 0 {
		return Config{}, fmt.Errorf("NOVA_GRACE_WINDOW must be positive")
	}
	if cfg.WakeListenWindow <= 0 || cfg.CommandListenWindow <= 0 {
		return Config{}, fmt.Errorf("listen windows must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.SpeechProvider)) {
	case "auto", "command", "mock":
	default:
		return Config{}, fmt.Errorf("invalid NOVA_SPEECH_PROVIDER: %q (expected auto|command|mock)", cfg.SpeechProvider)
	}

	return cfg, nil
}

func applyFile(cfg *Config) error {
	path := envTrimSpace("NOVA_CONFIG")
	explicit := path != ""
	if path == "" {
		path = "nova.toml"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIfPresent(&cfg.BindAddr, fc.BindAddr)
	setIfPresent(&cfg.MetricsNamespace, fc.MetricsNamespace)
	setIfPresent(&cfg.AssistantName, fc.AssistantName)
	setIfPresent(&cfg.UserName, fc.UserName)
	setIfPresent(&cfg.PreferredLanguage, fc.PreferredLanguage)
	setIfPresent(&cfg.DataDir, fc.DataDir)
	setIfPresent(&cfg.SpeechProvider, fc.SpeechProvider)
	setIfPresent(&cfg.ListenCommand, fc.ListenCommand)
	setIfPresent(&cfg.SpeakCommand, fc.SpeakCommand)
	setIfPresent(&cfg.MusicPlayerCommand, fc.MusicPlayerCommand)
	setIfPresent(&cfg.WeatherAPIKey, fc.WeatherAPIKey)
	setIfPresent(&cfg.NewsAPIKey, fc.NewsAPIKey)
	if len(fc.WakePhrases) > 0 {
		cfg.WakePhrases = append([]string(nil), fc.WakePhrases...)
	}
	if fc.IdleTimeout != "" {
		d, err := time.ParseDuration(fc.IdleTimeout)
		if err != nil {
			return fmt.Errorf("idle_timeout parse error: %w", err)
		}
		cfg.IdleTimeout = d
	}
	if fc.GraceWindow != "" {
		d, err := time.ParseDuration(fc.GraceWindow)
		if err != nil {
			return fmt.Errorf("grace_window parse error: %w", err)
		}
		cfg.GraceWindow = d
	}
	return nil
}

func normalizeWakePhrases(cfg *Config) {
	out := cfg.WakePhrases[:0]
	for _, p := range cfg.WakePhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	cfg.WakePhrases = out
}

func splitPhrases(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func setIfPresent(dst *string, v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		*dst = v
	}
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
