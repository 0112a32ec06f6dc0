package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/modularstore/admin-api/internal/model"
	"github.com/modularstore/admin-api/internal/utils"
)

const userColumns = "id,username,email,password,token,refresh_token,is_active,is_staff,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Token, &u.RefreshToken,
		&u.IsActive, &u.IsStaff, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM tabel_user_data WHERE id=? LIMIT 1", id))
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM tabel_user_data WHERE username=? LIMIT 1", username))
}

// GetByToken fetches the user owning the given API token. Tokens are
// opaque and compared by equality; at most one live token exists per
// user so the lookup is unambiguous.
func (r *UserRepo) GetByToken(ctx context.Context, token string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM tabel_user_data WHERE token=? LIMIT 1", token))
}

// ListAll returns every user row.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM tabel_user_data ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// FindDuplicates reports whether the username or email are already
// taken, optionally excluding one user id (for updates). Both flags
// are resolved in a single round trip so create can attribute the
// failure to the exact field(s).
func (r *UserRepo) FindDuplicates(ctx context.Context, username, email string, excludeID uint64) (usernameTaken, emailTaken bool, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT
			EXISTS(SELECT 1 FROM tabel_user_data WHERE username=? AND id<>?),
			EXISTS(SELECT 1 FROM tabel_user_data WHERE email=? AND id<>?)`,
		username, excludeID, email, excludeID).Scan(&usernameTaken, &emailTaken)
	return
}

// CreateWithRoles inserts a user and its role-join rows in a single
// transaction. This is the only transactional write path in the
// service: a half-created user with no roles must never be observable.
// The caller provides the bcrypt cost; the password is hashed here and
// a fresh API token is minted at creation time, so the account is
// usable before its first login. The assigned id and token are written
// back into u.
func (r *UserRepo) CreateWithRoles(ctx context.Context, u *model.User, plainPassword string, roleIDs []uint64, cost int) error {
	hash, err := utils.HashPassword(plainPassword, cost)
	if err != nil {
		return err
	}
	token, err := utils.NewAuthToken()
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO tabel_user_data (username, email, password, token, is_active, is_staff) VALUES (?,?,?,?,?,?)",
		u.Username, u.Email, hash, token, u.IsActive, u.IsStaff)
	if err != nil {
		return translateUserDup(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, roleID := range dedupe(roleIDs) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tabel_user_role_data (user_id, role_id) VALUES (?,?)",
			uint64(id), roleID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	u.ID = uint64(id)
	u.Password = hash
	u.Token = &token
	return nil
}

// Update persists the mutable columns of an already-loaded user row.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_user_data SET username=?, email=?, password=?, is_active=?, is_staff=? WHERE id=?",
		u.Username, u.Email, u.Password, u.IsActive, u.IsStaff, u.ID)
	if err != nil {
		return translateUserDup(err)
	}
	return nil
}

// SetTokens stores a freshly minted token pair on the user row,
// replacing any previous session.
func (r *UserRepo) SetTokens(ctx context.Context, id uint64, token, refreshToken string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_user_data SET token=?, refresh_token=? WHERE id=?",
		token, refreshToken, id)
	return err
}

// ClearTokens nulls both token columns, invalidating the session.
func (r *UserRepo) ClearTokens(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_user_data SET token=NULL, refresh_token=NULL WHERE id=?", id)
	return err
}

// Delete removes a user and its role-join rows. The join delete runs
// first so the result matches schemas without a cascading foreign key.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM tabel_user_role_data WHERE user_id=?", id); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tabel_user_data WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll removes every user and join row, returning how many users
// were deleted.
func (r *UserRepo) DeleteAll(ctx context.Context) (int64, error) {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM tabel_user_role_data"); err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tabel_user_data")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// translateUserDup converts a MySQL duplicate-key error (1062) into the
// field-attributed sentinel so handlers can name the offending column.
func translateUserDup(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
