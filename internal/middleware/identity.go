package middleware

// identity.go resolves who is calling, for rate-limit keys and request
// logs.  Admin requests are identified by the email of their session;
// every other caller is "guest".

import "github.com/labstack/echo/v4"

func actor(c echo.Context) string {
	if v, ok := c.Get(CtxAdminEmail).(string); ok && v != "" {
		return v
	}
	return "guest"
}
