package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/leighmacdonald/ipreview/internal/blocklist"
	"github.com/leighmacdonald/ipreview/internal/config"
	"github.com/leighmacdonald/ipreview/internal/httphelper"
	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/metrics"
	"github.com/leighmacdonald/ipreview/internal/network"
	"github.com/leighmacdonald/ipreview/internal/pending"
	"github.com/leighmacdonald/ipreview/internal/triage"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
	SentryDSN    = ""       //nolint:gochecknoglobals
)

type BuildInfo struct {
	BuildVersion string
	Commit       string
	Date         string
}

func Version() BuildInfo {
	return BuildInfo{
		BuildVersion: BuildVersion,
		Commit:       BuildCommit,
		Date:         BuildDate,
	}
}

type App struct {
	config    config.Config
	store     *blocklist.Store
	source    *pending.Source
	lookup    network.Lookup
	processor *triage.Processor
	metrics   *metrics.Metrics
	sentry    *sentry.Client

	closers   []func() error
	logCloser func()
}

func NewApp(configFile string) (*App, error) {
	conf, errConfig := config.Read(configFile)
	if errConfig != nil {
		slog.Error("Failed to read config", log.ErrAttr(errConfig))

		return nil, errConfig
	}

	if conf.Log.SentryDSN != "" {
		SentryDSN = conf.Log.SentryDSN
	}

	return &App{config: conf}, nil
}

// Init validates the configuration and constructs the services. The upstream credentials are
// only required here, the CLI subcommands which never fetch the pending list skip the check.
func (a *App) Init(ctx context.Context) error {
	a.setupSentry()
	a.logCloser = log.MustCreateLogger(ctx, a.config.Log, a.sentry != nil, BuildVersion)

	if errValid := a.config.Validate(); errValid != nil {
		slog.Error("Invalid configuration", log.ErrAttr(errValid))

		return errValid
	}

	if errInit := a.initServices(); errInit != nil {
		return errInit
	}

	if !a.source.Configured() {
		slog.Error("Upstream host and token are required, set IPREVIEW_UPSTREAM_HOST and IPREVIEW_UPSTREAM_TOKEN")

		return pending.ErrConfiguration
	}

	return nil
}

// initServices builds everything except the logger, the CLI subcommands share it with serve.
func (a *App) initServices() error {
	lookup, errLookup := a.newLookup()
	if errLookup != nil {
		slog.Error("Failed to create lookup provider", log.ErrAttr(errLookup))

		return errLookup
	}

	a.lookup = lookup
	a.store = blocklist.NewStore(a.config.Blocklist.Path)
	a.source = pending.NewSource(a.config.Upstream)
	a.metrics = metrics.New(prometheus.DefaultRegisterer)
	a.processor = triage.NewProcessor(a.lookup, a.store, a.metrics, a.config.Lookup.Concurrency)

	return nil
}

func (a *App) newLookup() (network.Lookup, error) {
	var provider network.Lookup

	switch a.config.Lookup.Provider {
	case network.ProviderGeoLite:
		geolite, errOpen := network.NewGeoLite(a.config.Lookup.GeoLitePath)
		if errOpen != nil {
			return nil, errOpen
		}

		a.closers = append(a.closers, geolite.Close)
		provider = geolite
	case network.ProviderCymru:
		provider = network.NewCymru(a.config.Lookup.WhoisServer, a.config.Lookup.Timeout)
	default:
		return nil, network.ErrUnknownSource
	}

	return network.NewResolver(provider, a.config.Lookup.RateLimit, a.config.Lookup.Timeout), nil
}

func (a *App) setupSentry() {
	if SentryDSN != "" {
		sentryClient, err := log.NewSentryClient(SentryDSN, true, 0.25, BuildVersion, a.config.General.Mode)
		if err != nil {
			slog.Error("Failed to setup sentry client", log.ErrAttr(err))
		} else {
			slog.Info("Sentry.io support is enabled.")
			a.sentry = sentryClient
		}
	} else {
		slog.Info("Sentry.io support is disabled. To enable at runtime, set IPREVIEW_LOGGING_SENTRY_DSN.")
	}
}

func (a *App) Serve(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, err := httphelper.CreateRouter(httphelper.RouterOpts{
		HTTPLogEnabled:    a.config.Log.HTTPEnabled,
		LogLevel:          a.config.Log.Level,
		Mode:              a.config.General.Mode,
		SentryDSN:         SentryDSN,
		Version:           BuildVersion,
		PProfEnabled:      a.config.PProfEnabled,
		PrometheusEnabled: a.config.PrometheusEnabled,
		FrontendEnable:    true,
		HTTPCORSEnabled:   a.config.HTTP.CORSEnabled,
		CORSOrigins:       a.config.HTTP.CORSOrigins,
	})
	if err != nil {
		slog.Error("Could not setup router", log.ErrAttr(err))

		return err
	}

	blocklist.NewHandler(router, a.store)
	pending.NewHandler(router, a.source)
	triage.NewHandler(router, a.processor)

	httpServer := httphelper.NewServer(a.config.Addr(), router)

	go func() {
		<-ctx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil { //nolint:contextcheck
			slog.Error("Error shutting down http service", log.ErrAttr(errShutdown))
		}
	}()

	build := Version()

	slog.Info("Starting HTTP server",
		slog.String("version", build.BuildVersion),
		slog.String("commit", build.Commit),
		slog.String("date", build.Date),
		slog.String("address", a.config.Addr()),
		slog.String("blocklist", a.store.Path()),
		slog.String("provider", string(a.config.Lookup.Provider)))

	errServe := httpServer.ListenAndServe()
	if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		slog.Error("HTTP server returned error", log.ErrAttr(errServe))
		stop()

		return errServe
	}

	<-ctx.Done()

	slog.Info("Exiting...")

	return nil
}

func (a *App) Close() error {
	var errs []error

	for _, closer := range a.closers {
		if errClose := closer(); errClose != nil {
			errs = append(errs, errClose)
		}
	}

	if a.sentry != nil {
		a.sentry.Flush(2 * time.Second)
	}

	if a.logCloser != nil {
		a.logCloser()
	}

	return errors.Join(errs...)
}
