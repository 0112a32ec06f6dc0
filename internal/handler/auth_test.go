package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/repository"
	"github.com/modularstore/admin-api/internal/utils"
)

func jsonContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope.Envelope {
	t.Helper()
	var env envelope.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password", "token", "refresh_token",
		"is_active", "is_staff", "created_at", "updated_at",
	})
}

func TestLoginUnknownUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE username=(.+)").
		WithArgs("ghost").
		WillReturnRows(userRows())

	c, rec := jsonContext(t, http.MethodPost, "/services/users/login",
		`{"username":"ghost","password":"whatever"}`)
	require.NoError(t, NewAuthHandler(repository.NewUserRepo(db)).Login(c))

	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Invalid credentials", env.Messages)
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hash, err := utils.HashPassword("right", 4)
	require.NoError(t, err)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE username=(.+)").
		WithArgs("alice").
		WillReturnRows(userRows().AddRow(
			uint64(1), "alice", "alice@example.com", hash, nil, nil,
			true, false, now, now))

	c, rec := jsonContext(t, http.MethodPost, "/services/users/login",
		`{"username":"alice","password":"wrong"}`)
	require.NoError(t, NewAuthHandler(repository.NewUserRepo(db)).Login(c))

	// Indistinguishable from the unknown-username response.
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Messages)
}

func TestLoginRotatesTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hash, err := utils.HashPassword("right", 4)
	require.NoError(t, err)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE username=(.+)").
		WithArgs("alice").
		WillReturnRows(userRows().AddRow(
			uint64(1), "alice", "alice@example.com", hash, "oldtoken", "oldrefresh",
			true, false, now, now))
	mock.ExpectExec("UPDATE tabel_user_data SET token=(.+), refresh_token=(.+) WHERE id=(.+)").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonContext(t, http.MethodPost, "/services/users/login",
		`{"username":"alice","password":"right"}`)
	require.NoError(t, NewAuthHandler(repository.NewUserRepo(db)).Login(c))

	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "Login successful", env.Messages)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	token, _ := data["token"].(string)
	refresh, _ := data["refresh_token"].(string)
	assert.Len(t, token, 64)
	assert.Len(t, refresh, 64)
	assert.NotEqual(t, token, refresh)
	assert.NotEqual(t, "oldtoken", token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginMissingFields(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c, rec := jsonContext(t, http.MethodPost, "/services/users/login", `{"username":"  "}`)
	require.NoError(t, NewAuthHandler(repository.NewUserRepo(db)).Login(c))

	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid input", env.Messages)

	fields, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
}

func TestLogout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE token=(.+)").
		WithArgs("deadbeef").
		WillReturnRows(userRows().AddRow(
			uint64(1), "alice", "alice@example.com", "hash", "deadbeef", "refresh",
			true, false, now, now))
	mock.ExpectExec("UPDATE tabel_user_data SET token=NULL, refresh_token=NULL WHERE id=(.+)").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonContext(t, http.MethodPost, "/services/users/logout", `{"token":"deadbeef"}`)
	require.NoError(t, NewAuthHandler(repository.NewUserRepo(db)).Logout(c))

	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", env.Messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutMissingToken(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c, rec := jsonContext(t, http.MethodPost, "/services/users/logout", `{}`)
	require.NoError(t, NewAuthHandler(repository.NewUserRepo(db)).Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token is required")
}

func TestLogoutUnknownToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM tabel_user_data WHERE token=(.+)").
		WithArgs("deadbeef").
		WillReturnRows(userRows())

	c, rec := jsonContext(t, http.MethodPost, "/services/users/logout", `{"token":"deadbeef"}`)
	require.NoError(t, NewAuthHandler(repository.NewUserRepo(db)).Logout(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}
