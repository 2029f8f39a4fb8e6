package config

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/network"
	"github.com/leighmacdonald/ipreview/internal/pending"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var ErrBindEnv = errors.New("failed to bind environment variable")

// legacyEnv maps config keys to the environment variable names used by earlier deployments.
//
//nolint:gochecknoglobals
var legacyEnv = map[string]string{
	"upstream.host":  "QRADAR_CONSOLE_IP",
	"upstream.token": "SEC_ADMIN_TOKEN",
}

func setDefaultConfigValues(reader *viper.Viper, configFile string) error {
	if configFile != "" {
		reader.SetConfigFile(configFile)
	} else {
		if home, errHomeDir := homedir.Dir(); errHomeDir == nil {
			reader.AddConfigPath(home)
		}

		reader.AddConfigPath(".")
		reader.SetConfigName("ipreview")
		reader.SetConfigType("yml")
	}

	reader.SetEnvPrefix("ipreview")
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	reader.AutomaticEnv()

	defaultConfig := map[string]any{
		"general.mode":                  gin.ReleaseMode,
		"http.host":                     "127.0.0.1",
		"http.port":                     5000,
		"http.cors_enabled":             false,
		"http.cors_origins":             []string{},
		"upstream.host":                 "",
		"upstream.token":                "",
		"upstream.reference_set":        pending.DefaultReferenceSet,
		"upstream.insecure_skip_verify": true,
		"upstream.timeout":              "10s",
		"lookup.provider":               string(network.ProviderCymru),
		"lookup.whois_server":           network.DefaultCymruServer,
		"lookup.timeout":                "15s",
		"lookup.rate_limit":             5,
		"lookup.concurrency":            4,
		"lookup.geolite_path":           "",
		"blocklist.path":                "store/blocklist.txt",
		"logging.level":                 string(log.Info),
		"logging.file":                  "",
		"logging.max_size_mb":           100,
		"logging.max_backups":           3,
		"logging.http_enabled":          false,
		"logging.sentry_dsn":            "",
		"prometheus_enabled":            false,
		"pprof_enabled":                 false,
	}

	for configKey, value := range defaultConfig {
		reader.SetDefault(configKey, value)
	}

	for configKey, legacyName := range legacyEnv {
		envName := "IPREVIEW_" + strings.ToUpper(strings.ReplaceAll(configKey, ".", "_"))
		if errBind := reader.BindEnv(configKey, envName, legacyName); errBind != nil {
			return errors.Join(errBind, ErrBindEnv)
		}
	}

	return nil
}
