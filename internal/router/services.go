package router

import (
	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/handler"
	"github.com/modularstore/admin-api/internal/middleware"
	"github.com/modularstore/admin-api/internal/repository"
)

// with adapts an optional middleware into a route-level middleware
// list; nil contributes nothing. Used for the response cache, which is
// absent when Redis is not available.
func with(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}

// RegisterAuth registers login and logout under /services/users. Both
// are open; identity resolution still runs so a caller presenting a
// bad token is told so instead of silently treated as anonymous.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, users *repository.UserRepo) {
	g := e.Group("/services/users", middleware.TokenAuth(users))
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
}

// RegisterUsers registers the user CRUD routes. Creation is open (the
// bootstrap path for a fresh install); everything else requires an
// authenticated caller and passes the standard method policy.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler,
	users *repository.UserRepo, userRoles *repository.UserRoleRepo) {
	g := e.Group("/services/users", middleware.TokenAuth(users))
	g.POST("/create", h.Create)

	p := g.Group("", middleware.RequireAuth(), middleware.RequirePolicy(userRoles))
	p.GET("/get/all", h.GetAll)
	p.GET("/get/:id", h.Get)
	p.PUT("/update/:id", h.Update)
	p.DELETE("/delete/all", h.DeleteAll)
	p.DELETE("/delete/:id", h.Delete)
}

// RegisterRoles registers the read-only role and user-role routes.
// Role reads are open under the standard policy; user-role reads also
// require authentication.
func RegisterRoles(e *echo.Echo, h *handler.RoleHandler,
	users *repository.UserRepo, userRoles *repository.UserRoleRepo) {
	rg := e.Group("/services/roles",
		middleware.TokenAuth(users), middleware.RequirePolicy(userRoles))
	rg.GET("/get/all", h.GetAll)
	rg.GET("/get/:id", h.Get)

	urg := e.Group("/services/user-roles",
		middleware.TokenAuth(users), middleware.RequireAuth(), middleware.RequirePolicy(userRoles))
	urg.GET("/get/all", h.GetAllUserRoles)
	urg.GET("/get/:id", h.GetUserRoles)
}

// RegisterModules registers the feature-toggle registry. The whole
// namespace sits behind the "engines" module gate; every route except
// the installed-module listing additionally requires a manager or
// administrator. The installed-module listing is the only cacheable
// read here: its payload is the same for every caller, and the cache
// runs after the gates so a hit never skips them.
func RegisterModules(e *echo.Echo, h *handler.ModuleHandler,
	users *repository.UserRepo, userRoles *repository.UserRoleRepo,
	modules *repository.ModuleRepo, cache echo.MiddlewareFunc) {
	g := e.Group("/services/modules",
		middleware.RequireModule("engines", modules), middleware.TokenAuth(users))
	g.GET("/get/active", h.GetInstalled, with(cache)...)

	s := g.Group("", middleware.RequireStrictPolicy(userRoles))
	s.GET("/get/all", h.GetAll)
	s.GET("/get/:id", h.Get)
	s.GET("/install/:id", h.Install)
	s.GET("/uninstall/:id", h.Uninstall)
	s.GET("/upgrade/:id", h.Upgrade)
}

// RegisterProducts registers the product catalog behind the "products"
// module gate and the standard method policy. Reads stay open at the
// policy level; the single-product read enforces authentication itself.
// Only the catalog listing is cached — its payload is caller
// independent — and the cache is route-level, after the gate chain, so
// a hit still passes the module gate.
func RegisterProducts(e *echo.Echo, h *handler.ProductHandler,
	users *repository.UserRepo, userRoles *repository.UserRoleRepo,
	modules *repository.ModuleRepo, cache echo.MiddlewareFunc) {
	g := e.Group("/services/products",
		middleware.RequireModule("products", modules),
		middleware.TokenAuth(users),
		middleware.RequirePolicy(userRoles))
	g.GET("/get/all", h.GetAll, with(cache)...)
	g.GET("/get/:id", h.Get)
	g.POST("/create", h.Create)
	g.PUT("/update/:id", h.Update)
	g.PUT("/restore/all", h.RestoreAll)
	g.PUT("/restore/:id", h.Restore)
	g.DELETE("/delete/all", h.SoftDeleteAll)
	g.DELETE("/delete/:id", h.SoftDelete)
	g.DELETE("/destroy/all", h.DestroyAll)
	g.DELETE("/destroy/:id", h.Destroy)
}
