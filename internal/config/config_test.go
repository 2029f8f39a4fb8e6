package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leighmacdonald/ipreview/internal/config"
	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/network"
	"github.com/stretchr/testify/require"
)

const testConfig = `
general:
  mode: debug
http:
  host: 0.0.0.0
  port: 8080
upstream:
  host: qradar.example.com
  token: file-token
  timeout: 30s
lookup:
  provider: cymru
  rate_limit: 2
blocklist:
  path: /tmp/blocklist.txt
logging:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ipreview.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestReadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QRADAR_CONSOLE_IP", "")
	t.Setenv("SEC_ADMIN_TOKEN", "")

	conf, errRead := config.Read("")
	require.NoError(t, errRead)
	require.NoError(t, conf.Validate())

	require.Equal(t, "127.0.0.1:5000", conf.Addr())
	require.Equal(t, "IPReview_Pending_IPs", conf.Upstream.ReferenceSet)
	require.True(t, conf.Upstream.InsecureSkipVerify)
	require.Equal(t, time.Second*10, conf.Upstream.Timeout)
	require.Equal(t, network.ProviderCymru, conf.Lookup.Provider)
	require.Equal(t, "whois.cymru.com", conf.Lookup.WhoisServer)
	require.Equal(t, 4, conf.Lookup.Concurrency)
	require.Equal(t, log.Info, conf.Log.Level)
	require.False(t, conf.Upstream.Configured())
}

func TestReadFile(t *testing.T) {
	conf, errRead := config.Read(writeConfig(t, testConfig))
	require.NoError(t, errRead)
	require.NoError(t, conf.Validate())

	require.Equal(t, "0.0.0.0:8080", conf.Addr())
	require.Equal(t, "qradar.example.com", conf.Upstream.Host)
	require.Equal(t, "file-token", conf.Upstream.Token)
	require.Equal(t, time.Second*30, conf.Upstream.Timeout)
	require.Equal(t, 2, conf.Lookup.RateLimit)
	require.Equal(t, "/tmp/blocklist.txt", conf.Blocklist.Path)
	require.Equal(t, log.Debug, conf.Log.Level)
}

func TestReadEnvironment(t *testing.T) {
	t.Setenv("IPREVIEW_HTTP_PORT", "9090")
	t.Setenv("IPREVIEW_HTTP_CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("IPREVIEW_LOOKUP_TIMEOUT", "3s")
	t.Setenv("QRADAR_CONSOLE_IP", "10.20.30.40")
	t.Setenv("SEC_ADMIN_TOKEN", "legacy-token")

	conf, errRead := config.Read(writeConfig(t, "general:\n  mode: release\n"))
	require.NoError(t, errRead)

	require.Equal(t, 9090, conf.HTTP.Port)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, conf.HTTP.CORSOrigins)
	require.Equal(t, time.Second*3, conf.Lookup.Timeout)
	require.Equal(t, "10.20.30.40", conf.Upstream.Host)
	require.Equal(t, "legacy-token", conf.Upstream.Token)
	require.True(t, conf.Upstream.Configured())
}

func TestReadEnvironmentPrecedence(t *testing.T) {
	t.Setenv("IPREVIEW_UPSTREAM_TOKEN", "new-token")
	t.Setenv("SEC_ADMIN_TOKEN", "legacy-token")

	conf, errRead := config.Read(writeConfig(t, testConfig))
	require.NoError(t, errRead)
	require.Equal(t, "new-token", conf.Upstream.Token)
}

func TestReadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("IPREVIEW_BLOCKLIST_PATH=/srv/blocklist.txt\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("IPREVIEW_BLOCKLIST_PATH")
	})

	conf, errRead := config.Read("")
	require.NoError(t, errRead)
	require.Equal(t, "/srv/blocklist.txt", conf.Blocklist.Path)
}

func TestReadInvalidFile(t *testing.T) {
	_, errRead := config.Read(writeConfig(t, "http: [this is not: valid"))
	require.ErrorIs(t, errRead, config.ErrReadConfig)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	conf, errRead := config.Read("")
	require.NoError(t, errRead)

	invalid := conf
	invalid.General.Mode = "production"
	invalid.HTTP.Port = 0
	invalid.Lookup.Provider = "ripe"
	invalid.Log.Level = "verbose"
	invalid.Blocklist.Path = ""

	errValid := invalid.Validate()
	require.ErrorIs(t, errValid, config.ErrInvalidConfig)
	require.ErrorIs(t, errValid, network.ErrUnknownSource)

	geolite := conf
	geolite.Lookup.Provider = network.ProviderGeoLite
	require.ErrorIs(t, geolite.Validate(), config.ErrInvalidConfig)

	geolite.Lookup.GeoLitePath = "/var/lib/GeoLite2-ASN.mmdb"
	require.NoError(t, geolite.Validate())
}
