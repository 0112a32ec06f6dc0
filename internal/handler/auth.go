package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/repository"
	"github.com/modularstore/admin-api/internal/utils"
)

// AuthHandler bundles dependencies for the login/logout endpoints.
type AuthHandler struct {
	Users *repository.UserRepo
}

func NewAuthHandler(u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Users: u}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type logoutReq struct {
	Token string `json:"token"`
}

type loginUserPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
type loginResp struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	User         loginUserPart `json:"user"`
}

// Login exchanges username+password for a fresh token pair. An unknown
// username and a wrong password both answer 401 "Invalid credentials"
// so the response never reveals which half failed. Every successful
// login mints two new random tokens and overwrites the stored pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid input")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		errs := map[string]string{}
		if req.Username == "" {
			errs["username"] = "This field is required."
		}
		if req.Password == "" {
			errs["password"] = "This field is required."
		}
		return envelope.ErrorData(c, http.StatusBadRequest, errs, "Invalid input")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return internalError(c, err)
	}
	if !utils.VerifyPassword(u.Password, req.Password) {
		return envelope.Error(c, http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := utils.NewAuthToken()
	if err != nil {
		return internalError(c, err)
	}
	refresh, err := utils.NewAuthToken()
	if err != nil {
		return internalError(c, err)
	}
	if err := h.Users.SetTokens(ctx, u.ID, token, refresh); err != nil {
		return internalError(c, err)
	}

	return envelope.Success(c, http.StatusOK, loginResp{
		Token:        token,
		RefreshToken: refresh,
		User:         loginUserPart{ID: u.ID, Username: u.Username, Email: u.Email},
	}, "Login successful")
}

// Logout invalidates a session by its token, clearing both the token
// and the refresh token on the owning user row.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	_ = c.Bind(&req)
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return envelope.Error(c, http.StatusBadRequest, "Token is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByToken(ctx, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusUnauthorized, "Invalid token")
		}
		return internalError(c, err)
	}
	if err := h.Users.ClearTokens(ctx, u.ID); err != nil {
		return internalError(c, err)
	}

	return envelope.Success(c, http.StatusOK, nil, "Logged out successfully")
}

// internalError reports an unexpected failure as a 500 envelope
// carrying the raw error text. Acceptable for an internal admin tool;
// a public surface would redact this.
func internalError(c echo.Context, err error) error {
	return envelope.Error(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
}
