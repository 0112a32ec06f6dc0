package middleware

// identity.go holds the token authentication gate. Requests carry
// `Authorization: Token <value>`; the gate resolves the owning user
// once and attaches it to the request context as an explicit value.
// Handlers and the authorization gate read it back via CurrentUser
// instead of re-parsing the header.

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/model"
	"github.com/modularstore/admin-api/internal/repository"
)

// identityKey is the echo context key the resolved user is stored under.
const identityKey = "identity"

// TokenAuth returns the authentication gate middleware. A missing or
// malformed header (anything but exactly two space-separated fields
// with a case-insensitive "token" prefix) leaves the request anonymous
// and passes it through; a well-formed header that resolves to no user
// fails with 401 "Invalid token", and a resolved but deactivated user
// fails with 401 "User is inactive".
func TokenAuth(users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := headerToken(c)
			if token == "" {
				// Missing or malformed scheme is anonymous, not an error.
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByToken(ctx, token)
			if err != nil {
				if err == sql.ErrNoRows {
					return envelope.Error(c, http.StatusUnauthorized, "Invalid token")
				}
				return envelope.Error(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
			}
			if !u.IsActive {
				return envelope.Error(c, http.StatusUnauthorized, "User is inactive")
			}

			c.Set(identityKey, &u)
			return next(c)
		}
	}
}

// headerToken extracts the opaque token from a well-formed
// `Authorization: Token <value>` header without touching the database.
// Anything but exactly two space-separated fields with a
// case-insensitive "token" prefix yields "".
func headerToken(c echo.Context) string {
	parts := strings.Fields(c.Request().Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "token") {
		return parts[1]
	}
	return ""
}

// CurrentUser returns the identity resolved by TokenAuth, or nil for
// anonymous requests.
func CurrentUser(c echo.Context) *model.User {
	if v := c.Get(identityKey); v != nil {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// RequireAuth rejects anonymous requests with a 401 envelope. It only
// checks that TokenAuth resolved an identity; role checks are the
// authorization gate's job.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return envelope.Error(c, http.StatusUnauthorized, "Authentication required")
			}
			return next(c)
		}
	}
}
