package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/N1seb/Render/internal/adapters/primary/http/middlewares"
	"github.com/gin-gonic/gin"
)

type Config struct {
	Host                    string        `envconfig:"HOST"`
	Port                    string        `envconfig:"PORT" default:"8080"`
	WriteTimeout            time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	ReadTimeout             time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	ReadHeaderTimeout       time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"3s"`
	IdleTimeout             time.Duration `envconfig:"IDLE_TIMEOUT" default:"15s"`
	ShutdownTimeout         time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	EnableLoggingMiddleware bool          `envconfig:"ENABLE_LOGGING_MIDDLEWARE" default:"false"`
	RateLimitRPS            float64       `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst          int           `envconfig:"RATE_LIMIT_BURST" default:"40"`
}

type Controller interface {
	RegisterRoutes(router *gin.Engine)
}

func NewHTTPServer(
	cfg *Config,
	logger *slog.Logger,
	httpMetrics *middlewares.HTTPMetrics,
	controllers ...Controller,
) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	server := &http.Server{
		Handler:           NewRouter(cfg, logger, httpMetrics, controllers...),
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return server
}

// NewRouter gin.Engine с общими middleware и маршрутами всех контроллеров
func NewRouter(
	cfg *Config,
	logger *slog.Logger,
	httpMetrics *middlewares.HTTPMetrics,
	controllers ...Controller,
) *gin.Engine {
	router := gin.New()
	router.Use(middlewares.RecoveryLogger(logger), middlewares.RequestID())
	if httpMetrics != nil {
		router.Use(httpMetrics.Handler())
	}
	if cfg.EnableLoggingMiddleware {
		router.Use(middlewares.RequestLogger(logger))
	}

	// Регистрируем маршруты всех контроллеров
	for _, controller := range controllers {
		controller.RegisterRoutes(router)
	}

	return router
}
