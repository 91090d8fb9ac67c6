package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storage-booking/internal/logger"
)

// RequestLogger tags each request with an id, taken from X-Request-ID or
// generated, stores a logrus entry carrying it in the request context and
// writes one access line when the request completes.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			entry := logrus.WithFields(logrus.Fields{"request_id": id, "method": req.Method, "path": req.URL.Path})
			c.SetRequest(req.WithContext(logger.WithLogger(req.Context(), entry)))

			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the response so the status below is final
				c.Error(err)
			}

			fields := logrus.Fields{
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         c.RealIP(),
				"actor":      actor(c),
			}
			line := entry.WithFields(fields)
			switch s := c.Response().Status; {
			case s >= 500:
				line.Error("request failed")
			case s >= 400:
				line.Warn("request rejected")
			default:
				line.Info("request served")
			}
			return nil
		}
	}
}
