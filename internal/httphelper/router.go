package httphelper

import (
	"errors"
	"log/slog"
	"net/netip"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/leighmacdonald/ipreview/frontend"
	"github.com/leighmacdonald/ipreview/internal/log"
	sloggin "github.com/samber/slog-gin"
)

var (
	ErrValidator      = errors.New("failed to register validator")
	ErrFrontendRoutes = errors.New("failed to initialize frontend asset routes")
)

type RouterOpts struct {
	HTTPLogEnabled    bool
	LogLevel          log.Level
	Mode              string
	SentryDSN         string
	Version           string
	PProfEnabled      bool
	PrometheusEnabled bool
	FrontendEnable    bool
	HTTPCORSEnabled   bool
	CORSOrigins       []string
}

// CreateRouter constructs a new router using gin.Engine with the provided RouterOpts.
func CreateRouter(opts RouterOpts) (*gin.Engine, error) {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.ContextWithFallback = true
	engine.Use(recoveryHandler())
	engine.Use(errorHandler())

	if errReg := registerCustomValidators(); errReg != nil {
		return nil, errReg
	}

	if opts.HTTPLogEnabled {
		useSloggin(engine, opts.LogLevel)
	}

	if opts.SentryDSN != "" {
		useSentry(engine, opts.Version)
	}

	if opts.PProfEnabled {
		pprof.Register(engine)
	}

	if opts.HTTPCORSEnabled {
		useCors(engine, opts.CORSOrigins, opts.Mode != gin.ReleaseMode)
	}

	if opts.PrometheusEnabled {
		usePrometheus(engine)
	}

	if opts.FrontendEnable {
		if err := frontend.AddRoutes(engine); err != nil {
			return nil, errors.Join(err, ErrFrontendRoutes)
		}
	}

	return engine, nil
}

// registerCustomValidators handles registering our custom request field type validators within the
// validation engine that gin uses.
func registerCustomValidators() error {
	if instance, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := instance.RegisterValidation("cidr_prefix", cidrPrefixValidator); err != nil {
			return errors.Join(err, ErrValidator)
		}
	}

	return nil
}

// cidrPrefixValidator accepts any string netip can parse as a prefix, host bits included.
func cidrPrefixValidator(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	_, errParse := netip.ParsePrefix(value)

	return errParse == nil
}

func useCors(engine *gin.Engine, origins []string, devMode bool) {
	engine.Use(useSecure(devMode, ""))

	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.ExposeHeaders = append(corsConfig.ExposeHeaders, "IPReview-AppVersion")
		corsConfig.AllowWildcard = true

		engine.Use(cors.New(corsConfig))
	} else {
		slog.Warn("No cors origins defined, disabling")
	}
}

func usePrometheus(engine *gin.Engine) {
	prom := ginprom.New(
		ginprom.Engine(engine),
		ginprom.Namespace("ipreview"),
		ginprom.Subsystem("http"),
		ginprom.Path("/metrics"),
	)
	engine.Use(prom.Instrument())
}

func useSloggin(engine *gin.Engine, level log.Level) {
	logConfig := sloggin.Config{
		DefaultLevel:     log.ToSlogLevel(level),
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}

	engine.Use(sloggin.NewWithConfig(slog.Default(), logConfig))
}
