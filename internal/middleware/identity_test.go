package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularstore/admin-api/internal/repository"
)

func newTestContext(t *testing.T, authorization string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/services/users/get/all", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password", "token", "refresh_token",
		"is_active", "is_staff", "created_at", "updated_at",
	})
}

func okHandler(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.NoContent(http.StatusOK)
	}
}

func TestTokenAuthMissingHeaderIsAnonymous(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c, _ := newTestContext(t, "")
	called := false
	err = TokenAuth(repository.NewUserRepo(db))(func(c echo.Context) error {
		called = true
		assert.Nil(t, CurrentUser(c))
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenAuthMalformedHeaderIsAnonymous(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, header := range []string{"Bearer abc", "Token", "Token a b", "abc"} {
		c, _ := newTestContext(t, header)
		called := false
		err = TokenAuth(repository.NewUserRepo(db))(okHandler(&called))(c)
		require.NoError(t, err)
		assert.True(t, called, "header %q must pass through", header)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenAuthUnknownToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE token=(.+)").
		WithArgs("deadbeef").
		WillReturnRows(userRows())

	c, rec := newTestContext(t, "Token deadbeef")
	called := false
	err = TokenAuth(repository.NewUserRepo(db))(okHandler(&called))(c)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenAuthInactiveUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	token := "deadbeef"
	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE token=(.+)").
		WithArgs(token).
		WillReturnRows(userRows().AddRow(
			uint64(1), "alice", "alice@example.com", "hash", token, nil,
			false, false, now, now))

	c, rec := newTestContext(t, "Token deadbeef")
	called := false
	err = TokenAuth(repository.NewUserRepo(db))(okHandler(&called))(c)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "User is inactive")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenAuthResolvesIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	token := "deadbeef"
	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE token=(.+)").
		WithArgs(token).
		WillReturnRows(userRows().AddRow(
			uint64(1), "alice", "alice@example.com", "hash", token, nil,
			true, false, now, now))

	// Scheme prefix is case-insensitive.
	c, _ := newTestContext(t, "tOkEn deadbeef")
	err = TokenAuth(repository.NewUserRepo(db))(func(c echo.Context) error {
		u := CurrentUser(c)
		require.NotNil(t, u)
		assert.Equal(t, "alice", u.Username)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireAuth(t *testing.T) {
	c, rec := newTestContext(t, "")
	called := false
	err := RequireAuth()(okHandler(&called))(c)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}
