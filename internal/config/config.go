// Package config loads the static application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/network"
	"github.com/leighmacdonald/ipreview/internal/pending"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	ErrReadConfig    = errors.New("failed to read config file")
	ErrFormatConfig  = errors.New("invalid config file format")
	ErrInvalidConfig = errors.New("invalid config value")
	ErrDotEnv        = errors.New("failed to load .env file")
)

type Config struct {
	General           General        `mapstructure:"general"`
	HTTP              HTTP           `mapstructure:"http"`
	Upstream          pending.Config `mapstructure:"upstream"`
	Lookup            Lookup         `mapstructure:"lookup"`
	Blocklist         Blocklist      `mapstructure:"blocklist"`
	Log               log.Config     `mapstructure:"logging"`
	PrometheusEnabled bool           `mapstructure:"prometheus_enabled"`
	PProfEnabled      bool           `mapstructure:"pprof_enabled"`
}

type General struct {
	Mode string `mapstructure:"mode"`
}

type HTTP struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSEnabled bool     `mapstructure:"cors_enabled"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type Lookup struct {
	Provider    network.Provider `mapstructure:"provider"`
	WhoisServer string           `mapstructure:"whois_server"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	// Maximum outbound lookups per second, 0 disables throttling.
	RateLimit int `mapstructure:"rate_limit"`
	// Maximum parallel lookups while blocking by owner.
	Concurrency int    `mapstructure:"concurrency"`
	GeoLitePath string `mapstructure:"geolite_path"`
}

type Blocklist struct {
	Path string `mapstructure:"path"`
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}

// Validate checks values which would otherwise only fail once in use. Missing upstream
// credentials are not an error, only the pending list endpoint depends on them.
func (c Config) Validate() error {
	var errs []error

	switch c.General.Mode {
	case gin.ReleaseMode, gin.DebugMode, gin.TestMode:
	default:
		errs = append(errs, fmt.Errorf("%w: general.mode %q", ErrInvalidConfig, c.General.Mode))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: http.port %d", ErrInvalidConfig, c.HTTP.Port))
	}

	if !c.Lookup.Provider.Valid() {
		errs = append(errs, errors.Join(network.ErrUnknownSource, fmt.Errorf("%w: lookup.provider %q", ErrInvalidConfig, c.Lookup.Provider)))
	}

	if c.Lookup.Provider == network.ProviderGeoLite && c.Lookup.GeoLitePath == "" {
		errs = append(errs, fmt.Errorf("%w: lookup.geolite_path is required for the geolite provider", ErrInvalidConfig))
	}

	if c.Lookup.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: lookup.rate_limit %d", ErrInvalidConfig, c.Lookup.RateLimit))
	}

	if c.Blocklist.Path == "" {
		errs = append(errs, fmt.Errorf("%w: blocklist.path is empty", ErrInvalidConfig))
	}

	if !c.Log.Level.Valid() {
		errs = append(errs, fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Log.Level))
	}

	return errors.Join(errs...)
}

// Read loads the configuration from the config file, a .env file in the working directory and
// the environment, in increasing order of precedence. An empty configFile searches the default
// locations; a missing config file is not an error.
func Read(configFile string) (Config, error) {
	var conf Config

	if errEnv := godotenv.Load(); errEnv != nil && !errors.Is(errEnv, fs.ErrNotExist) {
		return conf, errors.Join(errEnv, ErrDotEnv)
	}

	reader := viper.New()
	if errSetup := setDefaultConfigValues(reader, configFile); errSetup != nil {
		return conf, errSetup
	}

	if errReadConfig := reader.ReadInConfig(); errReadConfig != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(errReadConfig, &notFound) {
			return conf, errors.Join(errReadConfig, ErrReadConfig)
		}
	}

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if errUnmarshal := reader.Unmarshal(&conf, hooks); errUnmarshal != nil {
		return conf, errors.Join(errUnmarshal, ErrFormatConfig)
	}

	return conf, nil
}
