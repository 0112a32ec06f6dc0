package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/config"
	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/model"
	"github.com/modularstore/admin-api/internal/repository"
	"github.com/modularstore/admin-api/internal/utils"
)

// UserHandler bundles dependencies for the user CRUD endpoints.
type UserHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Roles     *repository.RoleRepo
	UserRoles *repository.UserRoleRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, r *repository.RoleRepo, ur *repository.UserRoleRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Roles: r, UserRoles: ur}
}

// ----- DTOs -----

// createUserReq keeps roles raw so a non-list value can be told apart
// from a missing or empty list before any row is touched.
type createUserReq struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Roles    json.RawMessage `json:"roles"`
}

type updateUserReq struct {
	Username *string   `json:"username"`
	Email    *string   `json:"email"`
	Password *string   `json:"password"`
	IsActive *bool     `json:"is_active"`
	IsStaff  *bool     `json:"is_staff"`
	Roles    *[]uint64 `json:"roles"`
}

type roleDetail struct {
	ID       uint64 `json:"id"`
	Rolename string `json:"rolename"`
}

// userPayload mirrors what the API exposes for a user. The token pair
// is included read-only — a freshly created user already carries a
// usable token.
type userPayload struct {
	ID           uint64       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	RoleDetails  []roleDetail `json:"role_details"`
	Token        *string      `json:"token"`
	RefreshToken *string      `json:"refresh_token"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func userToPayload(u model.User, roles []model.Role) userPayload {
	details := make([]roleDetail, 0, len(roles))
	for _, r := range roles {
		details = append(details, roleDetail{ID: r.ID, Rolename: r.Rolename})
	}
	return userPayload{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		RoleDetails:  details,
		Token:        u.Token,
		RefreshToken: u.RefreshToken,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func dupMessage(usernameTaken, emailTaken bool) string {
	switch {
	case usernameTaken && emailTaken:
		return "User with this email and username already exists."
	case usernameTaken:
		return "User with this username already exists."
	default:
		return "User with this email already exists."
	}
}

// Create registers a new user. The whole operation is atomic: the
// roles list is validated up front (present, a list, non-empty, every
// id resolving to an existing role) and the user plus its join rows
// are written in one transaction, so a failed request creates nothing.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid data provided.")
	}

	var roleIDs []uint64
	if len(req.Roles) > 0 && string(req.Roles) != "null" {
		if err := json.Unmarshal(req.Roles, &roleIDs); err != nil {
			return envelope.Error(c, http.StatusBadRequest, "Field 'roles' must be a list.")
		}
	}
	if len(roleIDs) == 0 {
		return envelope.Error(c, http.StatusBadRequest, "Field 'roles' cannot be empty.")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	errs := map[string]string{}
	if req.Username == "" {
		errs["username"] = "This field is required."
	}
	if req.Email == "" {
		errs["email"] = "This field is required."
	}
	if req.Password == "" {
		errs["password"] = "This field is required."
	}
	if len(errs) > 0 {
		return envelope.ErrorData(c, http.StatusBadRequest, errs, "Invalid data provided.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	valid, err := h.Roles.ListByIDs(ctx, roleIDs)
	if err != nil {
		return internalError(c, err)
	}
	if invalid := missingRoleIDs(roleIDs, valid); len(invalid) > 0 {
		return envelope.Error(c, http.StatusBadRequest, fmt.Sprintf("Invalid role IDs: %v", invalid))
	}

	usernameTaken, emailTaken, err := h.Users.FindDuplicates(ctx, req.Username, req.Email, 0)
	if err != nil {
		return internalError(c, err)
	}
	if usernameTaken || emailTaken {
		return envelope.Error(c, http.StatusBadRequest, dupMessage(usernameTaken, emailTaken))
	}

	u := model.User{Username: req.Username, Email: req.Email, IsActive: true}
	if err := h.Users.CreateWithRoles(ctx, &u, req.Password, roleIDs, h.Cfg.BcryptCost); err != nil {
		// The pre-check can lose a race; the insert reports the column.
		switch err {
		case repository.ErrUsernameExists:
			return envelope.Error(c, http.StatusBadRequest, dupMessage(true, false))
		case repository.ErrEmailExists:
			return envelope.Error(c, http.StatusBadRequest, dupMessage(false, true))
		}
		return internalError(c, err)
	}

	created, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusCreated, userToPayload(created, valid), "User created successfully.")
}

// Get returns one user by id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid user ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "User not found.")
		}
		return internalError(c, err)
	}
	roles, err := h.UserRoles.RolesForUser(ctx, u.ID)
	if err != nil {
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK, userToPayload(u, roles), "User retrieved successfully.")
}

// GetAll returns every user. An empty table is a success with an empty
// list, not an error.
func (h *UserHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if len(users) == 0 {
		return envelope.Success(c, http.StatusOK, []userPayload{}, "No users available.")
	}
	payloads := make([]userPayload, 0, len(users))
	for _, u := range users {
		roles, err := h.UserRoles.RolesForUser(ctx, u.ID)
		if err != nil {
			return internalError(c, err)
		}
		payloads = append(payloads, userToPayload(u, roles))
	}
	return envelope.Success(c, http.StatusOK, payloads, "Users retrieved successfully.")
}

// Update applies a partial update. When roles is present — even as an
// empty list — the user's whole role set is replaced, not extended;
// unknown role ids in the list are silently dropped.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid user ID.")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Validation failed.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "User not found.")
		}
		return internalError(c, err)
	}

	if req.Username != nil {
		u.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	errs := map[string]string{}
	if u.Username == "" {
		errs["username"] = "This field may not be blank."
	}
	if u.Email == "" {
		errs["email"] = "This field may not be blank."
	}
	if len(errs) > 0 {
		return envelope.ErrorData(c, http.StatusBadRequest, errs, "Validation failed.")
	}

	usernameTaken, emailTaken, err := h.Users.FindDuplicates(ctx, u.Username, u.Email, u.ID)
	if err != nil {
		return internalError(c, err)
	}
	if usernameTaken || emailTaken {
		return envelope.Error(c, http.StatusBadRequest, dupMessage(usernameTaken, emailTaken))
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return internalError(c, err)
		}
		u.Password = hash
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		u.IsStaff = *req.IsStaff
	}

	if err := h.Users.Update(ctx, &u); err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return envelope.Error(c, http.StatusBadRequest, dupMessage(true, false))
		case repository.ErrEmailExists:
			return envelope.Error(c, http.StatusBadRequest, dupMessage(false, true))
		}
		return internalError(c, err)
	}

	if req.Roles != nil {
		valid, err := h.Roles.ListByIDs(ctx, *req.Roles)
		if err != nil {
			return internalError(c, err)
		}
		validIDs := make([]uint64, 0, len(valid))
		for _, r := range valid {
			validIDs = append(validIDs, r.ID)
		}
		if err := h.UserRoles.Replace(ctx, u.ID, validIDs); err != nil {
			return internalError(c, err)
		}
	}

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return internalError(c, err)
	}
	roles, err := h.UserRoles.RolesForUser(ctx, u.ID)
	if err != nil {
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK, userToPayload(updated, roles), "User updated successfully.")
}

// Delete removes one user; the join rows go with it.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid user ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "User not found.")
		}
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK, nil, "User has been deleted successfully.")
}

// DeleteAll removes every user.
func (h *UserHandler) DeleteAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.Users.DeleteAll(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if count == 0 {
		return envelope.Error(c, http.StatusNotFound, "No users found to delete.")
	}
	return envelope.Success(c, http.StatusOK, nil, fmt.Sprintf("%d users have been deleted successfully.", count))
}

// missingRoleIDs returns the requested ids that did not resolve.
func missingRoleIDs(requested []uint64, found []model.Role) []uint64 {
	present := make(map[uint64]bool, len(found))
	for _, r := range found {
		present[r.ID] = true
	}
	var missing []uint64
	seen := make(map[uint64]bool, len(requested))
	for _, id := range requested {
		if !present[id] && !seen[id] {
			seen[id] = true
			missing = append(missing, id)
		}
	}
	return missing
}
