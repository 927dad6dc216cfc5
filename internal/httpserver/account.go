package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatekeeper/gatekeeper/internal/middleware"
	"github.com/gatekeeper/gatekeeper/internal/service"
)

func (h *AuthHTTP) Account(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get(middleware.CtxUserID).(uint)

	user, err := h.Svc.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return errorResponse(c, http.StatusNotFound, "User not found.", echo.Map{})
		}
		return err
	}
	return successResponse(c, http.StatusOK, "Account data.", echo.Map{"user": user})
}

func (h *AuthHTTP) UpdateAccount(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get(middleware.CtxUserID).(uint)

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	if err := h.Svc.UpdateAccount(ctx, userID, req.Username, req.Email); err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return validationFailed(c, ve)
		}
		return err
	}
	return successResponse(c, http.StatusOK, "Your account has been updated successfully!", echo.Map{})
}

func (h *AuthHTTP) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get(middleware.CtxUserID).(uint)

	var req struct {
		Slug string `json:"slug"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	if err := h.Svc.DeleteAccount(ctx, userID, req.Slug); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSlug):
			return errorResponse(c, http.StatusForbidden,
				fmt.Sprintf("Invalid slug. Please type %q to delete your account.", service.DeleteAccountSlug),
				echo.Map{})
		case errors.Is(err, service.ErrNotFound):
			return errorResponse(c, http.StatusNotFound, "User not found.", echo.Map{})
		}
		return err
	}
	return successResponse(c, http.StatusOK, "Your account has been deleted successfully.", echo.Map{})
}
