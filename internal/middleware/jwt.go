package middleware // middleware holds the echo middleware shared by the HTTP routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storage-booking/internal/logger"
	"github.com/iliyamo/storage-booking/internal/utils"
)

// Context keys set by AdminAuth.
const (
	CtxAdminEmail = "admin_email"
	CtxRole       = "role"
)

// AdminAuth returns an Echo middleware that validates the Bearer session
// token issued by POST /api/admin/auth and stores its subject and role in
// the context under CtxAdminEmail and CtxRole.  Missing, malformed, expired
// or foreign-signed tokens are answered with 401.
func AdminAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				logger.GetLogger(c.Request().Context()).WithError(err).Debug("admin token rejected")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxAdminEmail, claims.Subject)
			c.Set(CtxRole, claims.Role)
			ctx := c.Request().Context()
			c.SetRequest(c.Request().WithContext(logger.WithLogger(ctx, logger.GetLogger(ctx).WithField("admin", claims.Subject))))
			return next(c)
		}
	}
}
