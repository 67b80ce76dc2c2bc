package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/middleware"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/service"
)

// AdminHandler exposes the admin application surface: listing, reading,
// deciding and deleting applications.
type AdminHandler struct {
	Apps *service.ApplicationService
}

func NewAdminHandler(apps *service.ApplicationService) *AdminHandler {
	return &AdminHandler{Apps: apps}
}

type updateStatusReq struct {
	Status          string  `json:"status" validate:"required"`
	RejectionReason *string `json:"rejectionReason" validate:"omitempty,min=10,max=1000"`
}

// List returns a filtered, sorted page of applications. Filter values come
// from query parameters; unknown sort keys are tolerated and fall back to
// submission time further down.
func (h *AdminHandler) List(c echo.Context) error {
	filter := model.ApplicationFilter{
		Status:    strings.TrimSpace(c.QueryParam("status")),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return respondError(c, apperr.New(apperr.BadRequest, "status must be pending, approved or rejected"))
	}
	if raw := c.QueryParam("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return respondError(c, apperr.New(apperr.BadRequest, "invalid userId"))
		}
		filter.UserID = id
	}
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Page = n
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Apps.List(ctx, filter)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "applications retrieved", page)
}

// GetByID returns one application with its processing metadata.
func (h *AdminHandler) GetByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	app, err := h.Apps.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "application retrieved", app)
}

// UpdateStatus applies the admin's decision to an application.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "authentication required"))
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Apps.UpdateStatus(ctx, id, req.Status, admin.ID, req.RejectionReason); err != nil {
		return respondError(c, err)
	}

	app, err := h.Apps.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "application status updated", app)
}

// Delete removes an application and its stored documents.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := uploadCtx(c)
	defer cancel()

	if err := h.Apps.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "application deleted", nil)
}
