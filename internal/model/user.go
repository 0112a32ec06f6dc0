package model

import "time"

// User represents an application user record as stored in the
// `tabel_user_data` table. Each field corresponds to a column in the
// database. The password hash and the two token columns are never
// serialized directly; handlers build response projections instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address.
//  Password     – bcrypt hashed password.
//  Token        – current opaque API token (null until issued).
//  RefreshToken – current opaque refresh token (null until login).
//  IsActive     – whether the account may authenticate.
//  IsStaff      – staff flag carried over from the admin tooling.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // tabel_user_data.id
	Username     string    // tabel_user_data.username
	Email        string    // tabel_user_data.email
	Password     string    // tabel_user_data.password (bcrypt hash)
	Token        *string   // tabel_user_data.token (nullable)
	RefreshToken *string   // tabel_user_data.refresh_token (nullable)
	IsActive     bool      // tabel_user_data.is_active
	IsStaff      bool      // tabel_user_data.is_staff
	CreatedAt    time.Time // tabel_user_data.created_at
	UpdatedAt    time.Time // tabel_user_data.updated_at
}

// Role represents a row in the `tabel_role_data` table. The three
// default roles (user, manager, administrator) are seeded at startup
// and rarely change afterwards.
type Role struct {
	ID        uint64    `json:"id"`         // tabel_role_data.id
	Rolename  string    `json:"rolename"`   // tabel_role_data.rolename (unique)
	CreatedAt time.Time `json:"created_at"` // tabel_role_data.created_at
	UpdatedAt time.Time `json:"updated_at"` // tabel_role_data.updated_at
}

// UserRole is a row in the `tabel_user_role_data` join table linking a
// user to a role. The pair is not constrained unique in the schema, so
// duplicates are possible under concurrent writes; rows cascade away
// when either side is deleted.
type UserRole struct {
	ID        uint64    `json:"id"`         // tabel_user_role_data.id
	UserID    uint64    `json:"user"`       // tabel_user_role_data.user_id
	RoleID    uint64    `json:"role"`       // tabel_user_role_data.role_id
	CreatedAt time.Time `json:"created_at"` // tabel_user_role_data.created_at
	UpdatedAt time.Time `json:"updated_at"` // tabel_user_role_data.updated_at
}
