package repository

import (
	"context"
	"database/sql"

	"github.com/modularstore/admin-api/internal/model"
)

type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetByID fetches a role by id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,rolename,created_at,updated_at FROM tabel_role_data WHERE id=? LIMIT 1",
		id).Scan(&role.ID, &role.Rolename, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

// ListAll returns every role row.
func (r *RoleRepo) ListAll(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,rolename,created_at,updated_at FROM tabel_role_data ORDER BY id")
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

// ListByIDs returns the roles whose ids appear in the given list.
// Missing ids are simply absent from the result; callers compare
// lengths to detect invalid references.
func (r *RoleRepo) ListByIDs(ctx context.Context, ids []uint64) ([]model.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := "SELECT id,rolename,created_at,updated_at FROM tabel_role_data WHERE id IN (?" +
		repeat(",?", len(ids)-1) + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
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

// EnsureDefaults seeds the given rolenames if absent. INSERT IGNORE
// against the unique rolename column makes the call idempotent, so it
// is safe to run on every startup.
func (r *RoleRepo) EnsureDefaults(ctx context.Context, rolenames []string) error {
	for _, name := range rolenames {
		if _, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO tabel_role_data (rolename) VALUES (?)", name); err != nil {
			return err
		}
	}
	return nil
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
