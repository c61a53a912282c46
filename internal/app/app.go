package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alimikegami/campus-platform/auth-service/config"
	"github.com/alimikegami/campus-platform/auth-service/internal/controller"
	"github.com/alimikegami/campus-platform/auth-service/internal/infrastructure/tracing"
	applog "github.com/alimikegami/campus-platform/auth-service/internal/middleware"
	"github.com/alimikegami/campus-platform/auth-service/internal/repository"
	"github.com/alimikegami/campus-platform/auth-service/internal/service"
	"github.com/alimikegami/campus-platform/auth-service/pkg/password"
	"github.com/alimikegami/campus-platform/auth-service/pkg/response"
	"github.com/alimikegami/campus-platform/auth-service/pkg/token"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "auth-service"

type App struct {
	DB         *sqlx.DB
	Config     *config.Config
	Notifier   service.Notifier
	Publisher  service.EventPublisher
	Server     *echo.Echo
	Registerer prometheus.Registerer

	metrics       *echo.Echo
	traceProvider *sdktrace.TracerProvider
}

func ConfigureLogger(conf *config.Config) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if !conf.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = logger
}

// Build wires the repository, service and routes into a fresh echo instance.
func (app *App) Build() error {
	traceProvider, err := tracing.InitTracing(app.Config.TracingConfig.CollectorHost, serviceName)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	app.traceProvider = traceProvider

	tracer := traceProvider.Tracer(serviceName)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), fmt.Sprintf("[%s] %s", c.Request().Method, c.Path()))
			defer span.End()

			req := c.Request()
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	})

	registerer := app.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Registerer: registerer,
	}))
	e.Use(applog.Logger)

	codec := password.NewCodec(app.Config.PasswordConfig.HashCost)
	issuer := token.NewIssuer(
		[]byte(app.Config.JWTConfig.JWTSecret),
		time.Duration(app.Config.JWTConfig.TokenTTLMinutes)*time.Minute,
		token.WithKeyID(app.Config.JWTConfig.JWTKid),
	)

	repo := repository.CreateNewRepository(app.DB)
	svc := service.CreateNewService(repo, codec, issuer, app.Notifier, app.Publisher, app.Config)

	g := e.Group("")
	controller.CreateController(g, svc, issuer)

	g.GET("/ping", func(c echo.Context) error {
		return response.WriteSuccessResponse(c, "pong", nil)
	})

	app.Server = e
	return nil
}

// Start blocks serving the API until StopServer is called.
func (app *App) Start() error {
	if app.Server == nil {
		if err := app.Build(); err != nil {
			return err
		}
	}

	app.metrics = echo.New()
	app.metrics.HideBanner = true
	app.metrics.GET("/metrics", echoprometheus.NewHandler())
	go func() {
		if err := app.metrics.Start(fmt.Sprintf(":%s", app.Config.MetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("component", "MetricsServer").Msg("Failed to start metrics server")
		}
	}()

	err := app.Server.Start(fmt.Sprintf(":%s", app.Config.ServicePort))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (app *App) StopServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errList []error
	if app.Server != nil {
		errList = append(errList, app.Server.Shutdown(ctx))
	}
	if app.metrics != nil {
		errList = append(errList, app.metrics.Shutdown(ctx))
	}
	if app.traceProvider != nil {
		errList = append(errList, app.traceProvider.Shutdown(ctx))
	}

	return errors.Join(errList...)
}
