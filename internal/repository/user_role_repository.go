package repository

import (
	"context"
	"database/sql"

	"github.com/modularstore/admin-api/internal/model"
)

// UserRoleRepo reads and rewrites the user↔role join table. The pair is
// not unique-constrained, so reads use DISTINCT where a set is wanted.
type UserRoleRepo struct{ DB *sql.DB }

func NewUserRoleRepo(db *sql.DB) *UserRoleRepo { return &UserRoleRepo{DB: db} }

// RoleNamesForUser returns the distinct rolenames joined to a user.
// Called on every authorization check — never cached, so role changes
// take effect on the next request.
func (r *UserRoleRepo) RoleNamesForUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT r.rolename
		 FROM tabel_user_role_data ur
		 JOIN tabel_role_data r ON r.id = ur.role_id
		 WHERE ur.user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RolesForUser returns the full role rows joined to a user, used to
// build the role_details projection in user responses.
func (r *UserRoleRepo) RolesForUser(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.rolename, r.created_at, r.updated_at
		 FROM tabel_user_role_data ur
		 JOIN tabel_role_data r ON r.id = ur.role_id
		 WHERE ur.user_id=? ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Rolename, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// ListByUser returns the raw join rows for one user.
func (r *UserRoleRepo) ListByUser(ctx context.Context, userID uint64) ([]model.UserRole, error) {
	return r.list(ctx,
		"SELECT id,user_id,role_id,created_at,updated_at FROM tabel_user_role_data WHERE user_id=? ORDER BY id",
		userID)
}

// ListAll returns every join row.
func (r *UserRoleRepo) ListAll(ctx context.Context) ([]model.UserRole, error) {
	return r.list(ctx,
		"SELECT id,user_id,role_id,created_at,updated_at FROM tabel_user_role_data ORDER BY id")
}

func (r *UserRoleRepo) list(ctx context.Context, query string, args ...any) ([]model.UserRole, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.UserRole
	for rows.Next() {
		var ur model.UserRole
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.RoleID, &ur.CreatedAt, &ur.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}

// Replace swaps a user's entire role set: delete-all then bulk insert.
// The two statements are intentionally not wrapped in a transaction,
// matching the rest of the service's single-statement write model; a
// crash between them leaves the user with no roles until retried.
func (r *UserRoleRepo) Replace(ctx context.Context, userID uint64, roleIDs []uint64) error {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM tabel_user_role_data WHERE user_id=?", userID); err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	query := "INSERT INTO tabel_user_role_data (user_id, role_id) VALUES (?,?)" +
		repeat(",(?,?)", len(roleIDs)-1)
	args := make([]any, 0, len(roleIDs)*2)
	for _, roleID := range roleIDs {
		args = append(args, userID, roleID)
	}
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}
