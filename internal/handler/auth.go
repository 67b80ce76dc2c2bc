package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/middleware"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Nickname        string `json:"nickname" validate:"required,min=3,max=16,username"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type loginReq struct {
	EmailOrNickname string `json:"emailOrNickname" validate:"required,min=3,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required,max=1000"`
}

// Register creates a user and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "invalid body"))
	}
	req.Nickname = strings.TrimSpace(req.Nickname)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	result, err := h.Auth.Register(ctx, req.Nickname, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "user registered successfully", result)
}

// Login verifies credentials and returns a new token pair. All prior
// sessions of the user are gone after this call.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "invalid body"))
	}
	req.EmailOrNickname = strings.TrimSpace(req.EmailOrNickname)
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	result, err := h.Auth.Login(ctx, req.EmailOrNickname, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "logged in successfully", result)
}

// Refresh rotates the session's token pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	result, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "tokens refreshed successfully", result)
}

// Logout terminates the session matching the bearer token, if any. It
// never fails the caller; a request without a usable token still gets 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		ctx, cancel := reqCtx(c)
		defer cancel()
		_ = h.Auth.Logout(ctx, token)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's projection, re-read from the store.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "authentication required"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	fresh, err := h.Auth.CurrentUser(ctx, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "user data retrieved", fresh)
}

// UpdatePhoto replaces the profile photo from a multipart "photo" field.
func (h *AuthHandler) UpdatePhoto(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "authentication required"))
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "profile photo is required"))
	}
	data, mime, err := readImageFile(fh, "profile photo")
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := uploadCtx(c)
	defer cancel()

	updated, err := h.Auth.UpdateProfilePhoto(ctx, user.ID, data, mime)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "profile photo updated successfully", echo.Map{"user": updated})
}
