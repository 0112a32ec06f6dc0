package repository

import (
	"fmt"

	"github.com/modularstore/admin-api/internal/model"
)

// errDup1062 imitates the MySQL duplicate-key error text for a unique
// index on the named column.
func errDup1062(column string) error {
	return fmt.Errorf("Error 1062 (23000): Duplicate entry 'x' for key 'tabel.%s'", column)
}

func productFixture() model.Product {
	return model.Product{
		Name:    "Widget",
		Barcode: "4006381333931",
		Price:   "19.90",
		Stock:   12,
	}
}
