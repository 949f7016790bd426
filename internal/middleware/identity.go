package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID identifies the caller for rate limiting and cache keys: the user
// id when a session middleware already ran, a digest of the session cookie
// when one is present, and "guest" otherwise.
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok {
		return strconv.FormatUint(u.ID, 10)
	}
	if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
		sum := sha256.Sum256([]byte(ck.Value))
		return "s-" + hex.EncodeToString(sum[:8])
	}
	return "guest"
}
