package model

import "time"

// Product is an inventory record in the `tabel_product_data` table.
// Deletion is two-stage: a soft delete flips IsDeleted and stamps
// DeletedAt, after which the row sits in the recycle bin until it is
// restored, permanently deleted, or purged by the retention sweep.
// DeletedAt is set iff IsDeleted is true.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the product.
//  Barcode   – unique scan code.
//  Price     – unit price, decimal formatted with two places.
//  Stock     – units on hand (non-negative).
//  IsDeleted – recycle-bin flag.
//  DeletedAt – when the product entered the recycle bin (nullable).
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Product struct {
	ID        uint64     `json:"id"`           // tabel_product_data.id
	Name      string     `json:"product_name"` // tabel_product_data.product_name
	Barcode   string     `json:"barcode"`      // tabel_product_data.barcode (unique)
	Price     string     `json:"price"`        // tabel_product_data.price (DECIMAL(10,2))
	Stock     uint64     `json:"stock"`        // tabel_product_data.stock
	IsDeleted bool       `json:"is_deleted"`   // tabel_product_data.is_deleted
	DeletedAt *time.Time `json:"deleted_at"`   // tabel_product_data.deleted_at (nullable)
	CreatedAt time.Time  `json:"created_at"`   // tabel_product_data.created_at
	UpdatedAt time.Time  `json:"updated_at"`   // tabel_product_data.updated_at
}
