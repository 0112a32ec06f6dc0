package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/model"
	"github.com/modularstore/admin-api/internal/repository"
	"github.com/modularstore/admin-api/internal/utils"
)

// ModuleHandler serves the feature-toggle registry endpoints.
type ModuleHandler struct {
	Modules *repository.ModuleRepo
}

func NewModuleHandler(m *repository.ModuleRepo) *ModuleHandler {
	return &ModuleHandler{Modules: m}
}

// Get returns one module by id.
func (h *ModuleHandler) Get(c echo.Context) error {
	m, ok, err := h.fetch(c)
	if !ok {
		return err
	}
	return envelope.Success(c, http.StatusOK, m, "Module retrieved successfully")
}

// GetAll returns every registered module.
func (h *ModuleHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	modules, err := h.Modules.ListAll(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if len(modules) == 0 {
		return envelope.Error(c, http.StatusNotFound, "No modules available")
	}
	return envelope.Success(c, http.StatusOK, modules, "Modules retrieved successfully")
}

// GetInstalled returns only installed modules. This endpoint is open so
// clients can discover which features are switched on before
// authenticating.
func (h *ModuleHandler) GetInstalled(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	modules, err := h.Modules.ListInstalled(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if len(modules) == 0 {
		return envelope.Error(c, http.StatusNotFound, "No installed modules available")
	}
	return envelope.Success(c, http.StatusOK, modules, "Installed modules retrieved successfully")
}

// Install flips a module to installed. Installing an already-installed
// module is a no-op success, so concurrent installs converge.
func (h *ModuleHandler) Install(c echo.Context) error {
	return h.setInstalled(c, true, "installed")
}

// Uninstall flips a module to not installed; symmetric to Install.
func (h *ModuleHandler) Uninstall(c echo.Context) error {
	return h.setInstalled(c, false, "uninstalled")
}

func (h *ModuleHandler) setInstalled(c echo.Context, installed bool, verb string) error {
	m, ok, err := h.fetch(c)
	if !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Modules.SetInstalled(ctx, m.ID, installed); err != nil {
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK,
		map[string]string{"module": m.Name},
		fmt.Sprintf("Module %s %s successfully.", m.Name, verb))
}

// Upgrade advances the module version by the registry's stepping rule.
func (h *ModuleHandler) Upgrade(c echo.Context) error {
	m, ok, err := h.fetch(c)
	if !ok {
		return err
	}

	next, err := utils.NextVersion(m.Version)
	if err != nil {
		return internalError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Modules.UpdateVersion(ctx, m.ID, next); err != nil {
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK,
		map[string]string{"module": m.Name, "version": next},
		fmt.Sprintf("Module %s upgraded to version %s.", m.Name, next))
}

// fetch loads the module addressed by the :id param. On failure the
// error response has already been written and ok is false.
func (h *ModuleHandler) fetch(c echo.Context) (m model.Module, ok bool, err error) {
	id, perr := strconv.ParseUint(c.Param("id"), 10, 64)
	if perr != nil {
		return m, false, envelope.Error(c, http.StatusBadRequest, "Invalid module ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	found, gerr := h.Modules.GetByID(ctx, id)
	if gerr != nil {
		if gerr == sql.ErrNoRows {
			return m, false, envelope.Error(c, http.StatusNotFound, "Module not found")
		}
		return m, false, internalError(c, gerr)
	}
	return found, true, nil
}
