package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SEEN_"

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env    string        `koanf:"env" validate:"required,oneof=dev prod"`
	Log    LoggingConfig `koanf:"log"`
	Filter FilterConfig  `koanf:"filter"`
	Store  StoreConfig   `koanf:"store"`
	Cache  CacheConfig   `koanf:"cache"`
	Seeds  SeedsConfig   `koanf:"seeds"`
	Scope  ScopeConfig   `koanf:"scope"`
}

// LoggingConfig controls log verbosity: "debug", "info", "warn", or "error".
type LoggingConfig struct {
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// FilterConfig sizes the in-memory visited filter. When Bits and Hashes are
// both non-zero they are used as-is; otherwise the filter is sized from
// Expected and FPRate.
type FilterConfig struct {
	Bits     uint64  `koanf:"bits"`
	Hashes   uint    `koanf:"hashes" validate:"lte=64"`
	Expected uint64  `koanf:"expected" validate:"required"`
	FPRate   float64 `koanf:"fp_rate" validate:"fp_rate"`
}

// Explicit reports whether the filter geometry is given directly.
func (f FilterConfig) Explicit() bool {
	return f.Bits != 0 && f.Hashes != 0
}

// StoreConfig locates the bbolt visited database.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// CacheConfig sizes the verdict cache. Zero disables it.
type CacheConfig struct {
	Size int `koanf:"size" validate:"gte=0"`
}

// SeedsConfig points at an optional directory of seed files.
type SeedsConfig struct {
	Dir string `koanf:"dir"`
}

// ScopeConfig restricts streamed candidates to one registrable site. Site is
// a URL or bare host; empty accepts every site.
type ScopeConfig struct {
	Site string `koanf:"site"`
}

// DEFAULT_APP_CONFIG defines the default application configuration: a filter
// sized for a million URLs at a 1% false-positive rate, a 10k-entry verdict
// cache and no seed directory.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LoggingConfig{Level: "info"},
	Filter: FilterConfig{
		Expected: 1_000_000,
		FPRate:   0.01,
	},
	Store: StoreConfig{Path: "/var/lib/rr-seen/visited.db"},
	Cache: CacheConfig{Size: 10_000},
	Seeds: SeedsConfig{Dir: ""},
	Scope: ScopeConfig{Site: ""},
}

// envAliases maps the lowercased variable name (prefix stripped) to its
// koanf path. Variables not listed here are ignored.
var envAliases = map[string]string{
	"env":             "env",
	"log_level":       "log.level",
	"filter_bits":     "filter.bits",
	"filter_hashes":   "filter.hashes",
	"filter_expected": "filter.expected",
	"filter_fp_rate":  "filter.fp_rate",
	"store_path":      "store.path",
	"cache_size":      "cache.size",
	"seeds_dir":       "seeds.dir",
	"scope_site":      "scope.site",
}

// validFPRate reports whether the field is a probability strictly between 0 and 1.
func validFPRate(fl validator.FieldLevel) bool {
	p := fl.Field().Float()
	return p > 0 && p < 1
}

// validFilterGeometry rejects a filter with only one of Bits and Hashes set.
func validFilterGeometry(sl validator.StructLevel) {
	f := sl.Current().Interface().(FilterConfig)
	if (f.Bits == 0) != (f.Hashes == 0) {
		sl.ReportError(f.Bits, "Bits", "bits", "bits_hashes", "")
	}
}

// envLoader loads environment variables with the prefix "SEEN_" and maps
// them through envAliases. It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			name := strings.ToLower(strings.TrimPrefix(key, envPrefix))
			path, ok := envAliases[name]
			if !ok {
				return "", nil
			}
			return path, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "fp_rate" tag and the filter geometry rule.
var registerValidation = func(v *validator.Validate) error {
	if err := v.RegisterValidation("fp_rate", validFPRate); err != nil {
		return err
	}
	v.RegisterStructValidation(validFilterGeometry, FilterConfig{})
	return nil
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
