package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/repository"
)

// RoleHandler serves the read-only role and user-role endpoints.
type RoleHandler struct {
	Roles     *repository.RoleRepo
	UserRoles *repository.UserRoleRepo
}

func NewRoleHandler(r *repository.RoleRepo, ur *repository.UserRoleRepo) *RoleHandler {
	return &RoleHandler{Roles: r, UserRoles: ur}
}

// Get returns one role by id.
func (h *RoleHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid role ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Role not found")
		}
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK, role, "Role retrieved successfully")
}

// GetAll returns every role.
func (h *RoleHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, err := h.Roles.ListAll(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if len(roles) == 0 {
		return envelope.Error(c, http.StatusNotFound, "No roles available")
	}
	return envelope.Success(c, http.StatusOK, roles, "Roles retrieved successfully")
}

// GetUserRoles returns the join rows for one user id.
func (h *RoleHandler) GetUserRoles(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid user ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.UserRoles.ListByUser(ctx, userID)
	if err != nil {
		return internalError(c, err)
	}
	if len(rows) == 0 {
		return envelope.Error(c, http.StatusNotFound, "User roles not found")
	}
	return envelope.Success(c, http.StatusOK, rows, "User roles retrieved successfully")
}

// GetAllUserRoles returns every join row.
func (h *RoleHandler) GetAllUserRoles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.UserRoles.ListAll(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if len(rows) == 0 {
		return envelope.Error(c, http.StatusNotFound, "No user roles available")
	}
	return envelope.Success(c, http.StatusOK, rows, "User roles retrieved successfully")
}
