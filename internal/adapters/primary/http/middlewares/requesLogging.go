package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// quietRoutes опрашиваются мониторингом, успешные ответы не логируем
var quietRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if _, quiet := quietRoutes[route]; quiet && status < 400 {
			return
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		req := c.Request
		log.LogAttrs(req.Context(), level, "http request",
			slog.String("method", req.Method),
			slog.String("route", route),
			slog.String("path", req.URL.Path),
			slog.String("request_id", GetRequestID(c)),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("size", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		)
		if len(c.Errors) > 0 {
			log.LogAttrs(req.Context(), level, "http request errors",
				slog.String("request_id", GetRequestID(c)),
				slog.String("errors", c.Errors.String()),
			)
		}
	}
}
