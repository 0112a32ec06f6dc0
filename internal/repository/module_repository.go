package repository

import (
	"context"
	"database/sql"

	"github.com/modularstore/admin-api/internal/model"
)

// ModuleRepo owns the feature-toggle registry in tabel_engine_data.
type ModuleRepo struct{ DB *sql.DB }

func NewModuleRepo(db *sql.DB) *ModuleRepo { return &ModuleRepo{DB: db} }

// GetByID fetches a module by id.
func (r *ModuleRepo) GetByID(ctx context.Context, id uint64) (model.Module, error) {
	var m model.Module
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,installed,version FROM tabel_engine_data WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.Name, &m.Installed, &m.Version)
	return m, err
}

// ListAll returns every registered module.
func (r *ModuleRepo) ListAll(ctx context.Context) ([]model.Module, error) {
	return r.list(ctx, "SELECT id,name,installed,version FROM tabel_engine_data ORDER BY id")
}

// ListInstalled returns only modules with installed=true.
func (r *ModuleRepo) ListInstalled(ctx context.Context) ([]model.Module, error) {
	return r.list(ctx, "SELECT id,name,installed,version FROM tabel_engine_data WHERE installed=1 ORDER BY id")
}

func (r *ModuleRepo) list(ctx context.Context, query string) ([]model.Module, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Installed, &m.Version); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetInstalled flips the installed flag. The statement is a plain
// UPDATE to the target value, so repeating it (or racing another call)
// converges on the same end state.
func (r *ModuleRepo) SetInstalled(ctx context.Context, id uint64, installed bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_engine_data SET installed=? WHERE id=?", installed, id)
	return err
}

// UpdateVersion stores a new version string.
func (r *ModuleRepo) UpdateVersion(ctx context.Context, id uint64, version string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_engine_data SET version=? WHERE id=?", version, id)
	return err
}

// IsDisabled reports whether a module row with the given name exists
// and is explicitly not installed. A missing row returns false: only a
// registered-but-uninstalled module blocks its namespace.
func (r *ModuleRepo) IsDisabled(ctx context.Context, name string) (bool, error) {
	var disabled bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM tabel_engine_data WHERE name=? AND installed=0)",
		name).Scan(&disabled)
	return disabled, err
}

// EnsureKnown registers any known feature name that has no module row
// yet, inserting it as installed=false, version "0.1". Existing rows
// are never touched, so the reconciliation is idempotent and
// additive-only. Returns how many rows were inserted.
func (r *ModuleRepo) EnsureKnown(ctx context.Context, names []string) (int64, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT name FROM tabel_engine_data")
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0, err
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var inserted int64
	for _, name := range names {
		if existing[name] {
			continue
		}
		if _, err := r.DB.ExecContext(ctx,
			"INSERT INTO tabel_engine_data (name, installed, version) VALUES (?,?,?)",
			name, false, "0.1"); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
