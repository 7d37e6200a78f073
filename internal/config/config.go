// Package config resolves fittrack settings from flags, FITTRACK_*
// environment variables, an optional config.yaml and values saved with
// "fittrack config set".
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/saadjs/fittrack-cli/internal/api"
)

const envPrefix = "FITTRACK"

// Keys shared by viper, the environment and the app_config table.
const (
	KeyAPIBaseURL      = "api_base_url"
	KeyDBPath          = "db_path"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyRequestTimeout  = "request_timeout"
	KeyMetricsTextfile = "metrics_textfile"
	KeyToken           = "token"
)

type Config struct {
	APIBaseURL      string        `mapstructure:"api_base_url" validate:"required,url"`
	DBPath          string        `mapstructure:"db_path"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=console json"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
	MetricsTextfile string        `mapstructure:"metrics_textfile"`
	// Token is only ever read from FITTRACK_TOKEN.
	Token string `mapstructure:"token"`
}

var defaults = map[string]any{
	KeyAPIBaseURL:      api.DefaultBaseURL,
	KeyDBPath:          "",
	KeyLogLevel:        "warn",
	KeyLogFormat:       "console",
	KeyRequestTimeout:  time.Duration(0),
	KeyMetricsTextfile: "",
	KeyToken:           "",
}

type Options struct {
	// ConfigDir is searched for config.yaml. Empty skips the file.
	ConfigDir string
	// EnvFile is loaded into the process environment when it exists.
	// Variables already set are not overridden.
	EnvFile string
	// Flags maps config keys to command line flags. Only flags the user
	// changed take effect.
	Flags map[string]*pflag.Flag
}

// Loader holds every source except persisted values, which live in the
// database whose path is itself configurable.
type Loader struct {
	v *viper.Viper
}

func NewLoader(opts Options) (*Loader, error) {
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := godotenv.Load(opts.EnvFile); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
			}
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigDir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(opts.ConfigDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}
	return &Loader{v: v}, nil
}

// Load resolves the configuration. persisted values rank just above the
// built-in defaults.
func (l *Loader) Load(persisted map[string]string) (*Config, error) {
	for key, value := range persisted {
		if _, ok := defaults[key]; !ok || key == KeyToken || strings.TrimSpace(value) == "" {
			continue
		}
		l.v.SetDefault(key, value)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.DBPath != "" {
		cfg.DBPath = filepath.Clean(cfg.DBPath)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ValidatePersisted checks values about to be saved with "config set"
// against the built-in defaults only.
func ValidatePersisted(values map[string]string) error {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	_, err := (&Loader{v: v}).Load(values)
	return err
}

// ConfigFileUsed reports the config.yaml that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

var validate = validator.New()
