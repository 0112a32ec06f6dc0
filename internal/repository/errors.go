// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers such
// as handlers to distinguish between different failure scenarios and
// pick the right envelope code: duplicate-field sentinels become 400
// responses attributed to the offending field, while sql.ErrNoRows is
// passed through for 404s.
package repository

import "errors"

// ErrUsernameExists is returned when an insert or update collides with
// the unique username column.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an insert or update collides with
// the unique email column.
var ErrEmailExists = errors.New("email already exists")

// ErrBarcodeExists is returned when a product insert or update
// collides with the unique barcode column.
var ErrBarcodeExists = errors.New("barcode already exists")
