package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/utils"
)

const ingestClientKey = "ingest_client"

// IngestAuth guards the device registration and reading ingestion routes
// with an HS256 bearer token minted by the bridge.  An empty secret keeps
// those routes open, which is the default deployment.
func IngestAuth(secret string) echo.MiddlewareFunc {
	if secret == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			sub, err := utils.ParseIngestToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ingestClientKey, sub)
			return next(c)
		}
	}
}

// IngestClient returns the token subject stored by IngestAuth, or "" when
// the ingest routes are open.
func IngestClient(c echo.Context) string {
	sub, _ := c.Get(ingestClientKey).(string)
	return sub
}
