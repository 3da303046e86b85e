package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// BloomFPRate is the false-positive target of the authority list prefilter.
	BloomFPRate float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`

	// CacheSize bounds the lookup decision cache. Zero disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// DisableSimulator turns off the background detection feed.
	DisableSimulator bool `koanf:"disable_simulator"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	EventLogSize int `koanf:"event_log_size" validate:"required,gte=1,lte=100"`

	// FeedDB is an optional bbolt file mirroring the last good authority list.
	FeedDB string `koanf:"feed_db"`

	// FeedDir is an optional directory of authority list files. When empty the
	// built-in seed list is served.
	FeedDir string `koanf:"feed_dir"`

	// Keywords is the ordered risk keyword list; order decides ties.
	Keywords []string `koanf:"keywords" validate:"required,min=1,dive,keyword"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the HTTP port the API binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	SimulatorInterval time.Duration `koanf:"simulator_interval" validate:"gte=1s"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings.
var DEFAULT_APP_CONFIG = AppConfig{
	BloomFPRate:       0.01,
	CacheSize:         1000,
	DisableSimulator:  false,
	Env:               "prod",
	EventLogSize:      5,
	FeedDB:            "",
	FeedDir:           "",
	Keywords:          []string{"還付", "送金", "口座", "ワンタイム", "確認コード", "身分証", "至急"},
	LogLevel:          "info",
	Port:              8080,
	SimulatorInterval: 20 * time.Second,
}

// maxKeywordRunes bounds a single risk keyword.
const maxKeywordRunes = 32

// validKeyword accepts a non-blank keyword without surrounding whitespace and at
// most maxKeywordRunes runes long.
func validKeyword(fl validator.FieldLevel) bool {
	kw := fl.Field().String()
	if kw == "" || strings.TrimSpace(kw) != kw {
		return false
	}
	return utf8.RuneCountInString(kw) <= maxKeywordRunes
}

// listKeys are the keys whose environment values are comma-separated lists.
var listKeys = map[string]bool{"keywords": true}

// envLoader loads environment variables with the prefix "GUARD_", lowercasing
// keys. Values of listKeys are split on commas; everything else, spaces
// included, is kept as one value.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "GUARD_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "GUARD_"))
			value = strings.TrimSpace(value)

			if value == "" || !listKeys[key] {
				return key, value
			}
			return key, splitList(value)
		},
	}), nil)
}

// splitList splits on commas, trimming each item and dropping empty ones.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "keyword" validation tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("keyword", validKeyword)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
