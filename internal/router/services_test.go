package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularstore/admin-api/internal/config"
	"github.com/modularstore/admin-api/internal/handler"
	"github.com/modularstore/admin-api/internal/middleware"
	"github.com/modularstore/admin-api/internal/repository"
)

// serverEnv is the wired request surface under test: the real route
// registrations, handlers and repositories over a mocked database and
// a miniredis-backed response cache.
type serverEnv struct {
	e    *echo.Echo
	mock sqlmock.Sqlmock
	mr   *miniredis.Miniredis
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cacheMW := middleware.NewRedisCache(config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}, rdb)

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	userRoles := repository.NewUserRoleRepo(db)
	modules := repository.NewModuleRepo(db)
	products := repository.NewProductRepo(db)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	RegisterUsers(e, handler.NewUserHandler(config.Config{BcryptCost: 4}, users, roles, userRoles),
		users, userRoles)
	RegisterProducts(e, handler.NewProductHandler(products, nil),
		users, userRoles, modules, cacheMW)
	return &serverEnv{e: e, mock: mock, mr: mr}
}

func (s *serverEnv) do(method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func routedUserRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password", "token", "refresh_token",
		"is_active", "is_staff", "created_at", "updated_at",
	})
}

func (s *serverEnv) expectModuleGate(name string, disabled bool) {
	s.mock.ExpectQuery("SELECT EXISTS(.+)tabel_engine_data(.+)installed=0").
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"disabled"}).AddRow(disabled))
}

// The user listing carries live tokens, so it must never be written to
// or served from the response cache: an authenticated read followed by
// an anonymous one gets a fresh 401, not a replayed 200.
func TestUserListingNotServedFromCache(t *testing.T) {
	s := newServerEnv(t)
	now := time.Now().UTC()
	token := "a1b2c3d4"

	s.mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE token=(.+)").
		WithArgs(token).
		WillReturnRows(routedUserRows().AddRow(
			uint64(1), "alice", "alice@example.com", "hash", token, nil,
			true, false, now, now))
	s.mock.ExpectQuery("SELECT DISTINCT r.rolename").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"rolename"}).AddRow("administrator"))
	s.mock.ExpectQuery("SELECT (.+) FROM tabel_user_data ORDER BY id").
		WillReturnRows(routedUserRows().AddRow(
			uint64(1), "alice", "alice@example.com", "hash", token, nil,
			true, false, now, now))
	s.mock.ExpectQuery("SELECT r.id, r.rolename(.+)FROM tabel_user_role_data").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rolename", "created_at", "updated_at"}).
			AddRow(uint64(3), "administrator", now, now))

	rec := s.do(http.MethodGet, "/services/users/get/all", "Token "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), token)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, s.mr.Keys(), "authenticated payloads must not reach the cache")

	rec = s.do(http.MethodGet, "/services/users/get/all", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
	assert.NotContains(t, rec.Body.String(), token)
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

// The catalog listing is cached, but the cache sits behind the module
// gate: a hit still consults the registry, so uninstalling the module
// blocks the route immediately even with a live cache entry.
func TestProductListingCacheBehindModuleGate(t *testing.T) {
	s := newServerEnv(t)
	now := time.Now().UTC()

	s.expectModuleGate("products", false)
	s.mock.ExpectQuery("SELECT (.+) FROM tabel_product_data WHERE is_deleted=0 ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "product_name", "barcode", "price", "stock",
			"is_deleted", "deleted_at", "created_at", "updated_at",
		}).AddRow(uint64(1), "Widget", "4006381333931", "19.90", uint64(5),
			false, nil, now, now))

	rec := s.do(http.MethodGet, "/services/products/get/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "Widget")

	// Second read: only the gate query runs, the body is replayed.
	s.expectModuleGate("products", false)
	rec = s.do(http.MethodGet, "/services/products/get/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "Widget")

	// Module uninstalled: the gate answers before the cache is reached.
	s.expectModuleGate("products", true)
	rec = s.do(http.MethodGet, "/services/products/get/all", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Module not installed")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, s.mock.ExpectationsWereMet())
}
