package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularstore/admin-api/internal/model"
	"github.com/modularstore/admin-api/internal/utils"
)

func TestUserCreateWithRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tabel_user_data").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), true, false).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO tabel_user_role_data").
		WithArgs(uint64(42), uint64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO tabel_user_role_data").
		WithArgs(uint64(42), uint64(2)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := NewUserRepo(db)
	u := model.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	// Duplicate role ids collapse to a single join row each.
	err = repo.CreateWithRoles(context.Background(), &u, "s3cret", []uint64{1, 2, 1}, 4)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), u.ID)
	require.NotNil(t, u.Token)
	assert.Len(t, *u.Token, 64)
	assert.True(t, utils.VerifyPassword(u.Password, "s3cret"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithRolesRollsBackOnJoinFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tabel_user_data").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), true, false).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO tabel_user_role_data").
		WithArgs(uint64(42), uint64(1)).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	repo := NewUserRepo(db)
	u := model.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	err = repo.CreateWithRoles(context.Background(), &u, "s3cret", []uint64{1}, 4)
	assert.Error(t, err)
	assert.Zero(t, u.ID, "id must not be written back on failure")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithRolesDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tabel_user_data").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), true, false).
		WillReturnError(errDup1062("email"))
	mock.ExpectRollback()

	repo := NewUserRepo(db)
	u := model.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	err = repo.CreateWithRoles(context.Background(), &u, "s3cret", []uint64{1}, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindDuplicates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WithArgs("alice", uint64(0), "alice@example.com", uint64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"u", "e"}).AddRow(true, false))

	repo := NewUserRepo(db)
	usernameTaken, emailTaken, err := repo.FindDuplicates(context.Background(), "alice", "alice@example.com", 0)
	require.NoError(t, err)
	assert.True(t, usernameTaken)
	assert.False(t, emailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteCascadesJoinRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM tabel_user_role_data WHERE user_id=(.+)").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM tabel_user_data WHERE id=(.+)").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM tabel_user_role_data WHERE user_id=(.+)").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM tabel_user_data WHERE id=(.+)").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	err = repo.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateUserDup(t *testing.T) {
	assert.ErrorIs(t, translateUserDup(errDup1062("email")), ErrEmailExists)
	assert.ErrorIs(t, translateUserDup(errDup1062("username")), ErrUsernameExists)

	other := errors.New("Error 2013 (HY000): Lost connection")
	assert.Equal(t, other, translateUserDup(other))
}
