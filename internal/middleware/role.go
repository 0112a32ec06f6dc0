package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/auth"
	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/repository"
)

// RequirePolicy enforces the standard access policy: reads are open,
// POST/PUT/PATCH need any seeded role and DELETE needs manager or
// administrator. The caller's role set is read fresh from the join
// table on every request so revocations apply immediately. The policy
// decision itself is the pure auth.Allow function; this middleware only
// gathers its inputs and turns a deny into the uniform 403 envelope.
func RequirePolicy(userRoles *repository.UserRoleRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, authenticated, err := resolveTiers(c, userRoles)
			if err != nil {
				return envelope.Error(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
			}
			if !auth.Allow(authenticated, roles, c.Request().Method) {
				return envelope.Error(c, http.StatusForbidden, "Permission denied")
			}
			return next(c)
		}
	}
}

// RequireStrictPolicy enforces the module-registry policy: every
// operation, reads included, needs an authenticated manager or
// administrator.
func RequireStrictPolicy(userRoles *repository.UserRoleRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, authenticated, err := resolveTiers(c, userRoles)
			if err != nil {
				return envelope.Error(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
			}
			if !auth.AllowStrict(authenticated, roles) {
				return envelope.Error(c, http.StatusForbidden, "Permission denied")
			}
			return next(c)
		}
	}
}

func resolveTiers(c echo.Context, userRoles *repository.UserRoleRepo) (auth.TierSet, bool, error) {
	u := CurrentUser(c)
	if u == nil {
		return nil, false, nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	names, err := userRoles.RoleNamesForUser(ctx, u.ID)
	if err != nil {
		return nil, true, err
	}
	return auth.Tiers(names), true, nil
}
