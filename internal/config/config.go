package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "DISKBLOOM_"

// AppConfig holds the settings of the diskbloom command
type AppConfig struct {
	// Backend selects where the bit table lives: "file", "memory" or "redis".
	// A memory table dies with the process, so it only serves bench.
	Backend string `koanf:"backend" validate:"required,oneof=file memory redis"`

	// Path is the table file location, created on the first write.
	Path string `koanf:"path" validate:"required_if=Backend file"`

	// Items and ErrorRate size the table. They must not change for an existing table.
	Items     uint64  `koanf:"items" validate:"required,gte=1"`
	ErrorRate float64 `koanf:"error_rate" validate:"required,gt=0,lt=1"`

	RedisAddr string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisKey  string `koanf:"redis_key" validate:"required_if=Backend redis"`

	// Workers is the number of concurrent readers in bench mode.
	Workers   int `koanf:"workers" validate:"required,gte=1"`
	BenchKeys int `koanf:"bench_keys" validate:"required,gte=1"`
	KeyLength int `koanf:"key_length" validate:"required,gte=1"`

	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

var DefaultAppConfig = AppConfig{
	Backend:   "file",
	Path:      "db.bin",
	Items:     1_000_000,
	ErrorRate: 0.001,
	RedisAddr: "localhost:6379",
	RedisKey:  "diskbloom",
	Workers:   20,
	BenchKeys: 10_000,
	KeyLength: 10,
	LogLevel:  "info",
}

// envLoader can be replaced in tests
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), strings.TrimSpace(value)
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

// Load reads defaults, then DISKBLOOM_* environment variables, and validates the result
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, errors.Wrap(err, "loading default config")
	}
	if err := envLoader(k); err != nil {
		return nil, errors.Wrap(err, "loading env")
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &cfg, nil
}
