package handler

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// Pages serves the static HTML documents of the web interface.
type Pages struct {
	Dir string
}

// Page returns a handler sending Dir/name.
func (p Pages) Page(name string) echo.HandlerFunc {
	path := filepath.Join(p.Dir, name)
	return func(c echo.Context) error {
		return c.File(path)
	}
}
