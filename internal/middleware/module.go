package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/repository"
)

// moduleDisabledMessage is the fixed response body for gated routes.
const moduleDisabledMessage = "Module not installed. Please contact administrator or manager to install."

// RequireModule short-circuits every route in a module's namespace
// while that module is registered but not installed. A name with no
// registry row at all is not blocked — only an explicit installed=false
// row disables a namespace. The check runs before authentication, so
// a disabled module answers identically for every caller.
func RequireModule(name string, modules *repository.ModuleRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			disabled, err := modules.IsDisabled(ctx, name)
			if err != nil {
				return envelope.Error(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
			}
			if disabled {
				return envelope.Error(c, http.StatusForbidden, moduleDisabledMessage)
			}
			return next(c)
		}
	}
}
