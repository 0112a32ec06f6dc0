package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/modularstore/admin-api/internal/model"
)

const productColumns = "id,product_name,barcode,price,stock,is_deleted,deleted_at,created_at,updated_at"

// ProductRepo owns tabel_product_data and its recycle-bin lifecycle.
// Active rows (is_deleted=0) are visible to normal reads and updates;
// recycled rows (is_deleted=1) are visible only to restore, permanent
// delete and the retention sweep. Every scoped statement filters on
// is_deleted so a row can never be permanently deleted while active.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.Price, &p.Stock,
		&p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetActiveByID fetches an active product; recycled rows are invisible
// here and surface as sql.ErrNoRows.
func (r *ProductRepo) GetActiveByID(ctx context.Context, id uint64) (model.Product, error) {
	return scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM tabel_product_data WHERE id=? AND is_deleted=0 LIMIT 1", id))
}

// GetRecycledByID fetches a product currently in the recycle bin.
func (r *ProductRepo) GetRecycledByID(ctx context.Context, id uint64) (model.Product, error) {
	return scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM tabel_product_data WHERE id=? AND is_deleted=1 LIMIT 1", id))
}

// ListActive returns all products outside the recycle bin.
func (r *ProductRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+productColumns+" FROM tabel_product_data WHERE is_deleted=0 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a product and writes the assigned id back.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tabel_product_data (product_name, barcode, price, stock) VALUES (?,?,?,?)",
		p.Name, p.Barcode, p.Price, p.Stock)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrBarcodeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update overwrites the mutable columns of an active product. Updating
// a recycled or missing row reports sql.ErrNoRows.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_product_data SET product_name=?, barcode=?, price=?, stock=? WHERE id=? AND is_deleted=0",
		p.Name, p.Barcode, p.Price, p.Stock, p.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrBarcodeExists
		}
		return err
	}
	return requireRow(res)
}

// SoftDelete moves an active product into the recycle bin, stamping
// deleted_at with the given time. The is_deleted=0 guard keeps the
// operation from re-stamping an already recycled row, so the 24h purge
// clock always starts at the first delete.
func (r *ProductRepo) SoftDelete(ctx context.Context, id uint64, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_product_data SET is_deleted=1, deleted_at=? WHERE id=? AND is_deleted=0",
		now, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDeleteAll recycles every active product, returning the count.
func (r *ProductRepo) SoftDeleteAll(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_product_data SET is_deleted=1, deleted_at=? WHERE is_deleted=0", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Restore returns a recycled product to the active state and clears
// deleted_at, resetting purge eligibility entirely.
func (r *ProductRepo) Restore(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_product_data SET is_deleted=0, deleted_at=NULL WHERE id=? AND is_deleted=1", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RestoreAll restores every recycled product, returning the count.
func (r *ProductRepo) RestoreAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tabel_product_data SET is_deleted=0, deleted_at=NULL WHERE is_deleted=1")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PermanentDelete removes a recycled product row. Active rows are out
// of scope and report sql.ErrNoRows.
func (r *ProductRepo) PermanentDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tabel_product_data WHERE id=? AND is_deleted=1", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// PermanentDeleteAll empties the recycle bin, returning the count.
func (r *ProductRepo) PermanentDeleteAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tabel_product_data WHERE is_deleted=1")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired purges recycled products whose deleted_at is at or
// before the cutoff. Idempotent: rows purged by a concurrent sweep are
// simply not matched, and restored rows drop out of the predicate.
func (r *ProductRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tabel_product_data WHERE is_deleted=1 AND deleted_at<=?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
