package model

// Module is a row in the `tabel_engine_data` table describing an
// optional feature toggle. Newly discovered features are registered
// with installed=false and version "0.1"; installed and version only
// change through the explicit install/uninstall/upgrade operations.
type Module struct {
	ID        uint64 `json:"id"`        // tabel_engine_data.id
	Name      string `json:"name"`      // tabel_engine_data.name (unique)
	Installed bool   `json:"installed"` // tabel_engine_data.installed
	Version   string `json:"version"`   // tabel_engine_data.version (decimal string)
}
