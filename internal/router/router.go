// Package router wires HTTP routes to handlers and applies the gate
// chain each resource needs: module gate first, then token
// authentication, then role policy.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/handler"
)

// RegisterRoutes registers routes that carry no gates at all.
// Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// ErrorHandler translates unhandled errors into the uniform JSON
// envelope so clients never see echo's default error shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			message = s
		}
	}
	_ = envelope.Error(c, code, message)
}
