package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatekeeper/gatekeeper/internal/logging"
	"github.com/gatekeeper/gatekeeper/internal/middleware"
	"github.com/gatekeeper/gatekeeper/internal/service"
)

const msgInvalidBody = "Invalid request body."

type AuthHTTP struct {
	Svc *service.AuthService
}

func validationFailed(c echo.Context, ve *service.ValidationError) error {
	return errorResponse(c, http.StatusBadRequest, "Validation error.",
		echo.Map{"validation_errors": ve.Fields})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return validationFailed(c, ve)
		}
		return err
	}

	return successResponse(c, http.StatusCreated,
		fmt.Sprintf("User %s was created successfully.", user.Username), echo.Map{})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return errorResponse(c, http.StatusUnauthorized, "Invalid credentials.", echo.Map{})
	case errors.Is(err, service.ErrInactiveAccount):
		return errorResponse(c, http.StatusForbidden, "Your account is inactive.", echo.Map{})
	case err != nil:
		return err
	}

	return successResponse(c, http.StatusOK, "Login successful.", echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	pair, err := h.Svc.Refresh(ctx, c.Get(middleware.CtxToken).(string))
	switch {
	case errors.Is(err, service.ErrWrongTokenKind):
		return errorResponse(c, http.StatusUnprocessableEntity, "Only refresh tokens are allowed.", echo.Map{})
	case errors.Is(err, service.ErrTokenExpired):
		return errorResponse(c, http.StatusUnauthorized, "Token has expired.", echo.Map{})
	case errors.Is(err, service.ErrTokenRevoked):
		return errorResponse(c, http.StatusUnauthorized, "Token has been revoked.", echo.Map{})
	case errors.Is(err, service.ErrInvalidOrExpired):
		return errorResponse(c, http.StatusUnprocessableEntity, "Invalid token.", echo.Map{})
	case err != nil:
		return err
	}

	return successResponse(c, http.StatusOK, "Refresh successful.", echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHTTP) RevokeAccessToken(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.Svc.RevokeAccess(ctx, c.Get(middleware.CtxToken).(string)); err != nil {
		return err
	}
	return successResponse(c, http.StatusOK, "Access token revoked successfully.", echo.Map{})
}

func (h *AuthHTTP) RevokeRefreshToken(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.Svc.RevokeRefresh(ctx, c.Get(middleware.CtxToken).(string)); err != nil {
		return err
	}
	return successResponse(c, http.StatusOK, "Refresh token revoked successfully.", echo.Map{})
}

func (h *AuthHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	if err := h.Svc.Confirm(ctx, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpired) {
			return errorResponse(c, http.StatusNotFound,
				"The confirmation link is invalid or has expired.", echo.Map{})
		}
		return err
	}
	return successResponse(c, http.StatusOK, "Account confirmed successfully.", echo.Map{})
}

func (h *AuthHTTP) ResendConfirmation(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	// Uniform response: never reveal whether the address exists.
	h.Svc.ResendConfirmation(ctx, req.Email)
	return successResponse(c, http.StatusOK, "A new confirmation email has been sent to you.", echo.Map{})
}

func (h *AuthHTTP) ResetPasswordEmail(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	h.Svc.RequestPasswordReset(ctx, req.Email)
	return successResponse(c, http.StatusOK, "Email was send successfully.", echo.Map{})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	err := h.Svc.ResetPassword(ctx, req.Token, req.Password, req.PasswordConfirm)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			return validationFailed(c, ve)
		case errors.Is(err, service.ErrInvalidOrExpired):
			return errorResponse(c, http.StatusNotFound,
				"The confirmation link is invalid or has expired.", echo.Map{})
		}
		return err
	}
	return successResponse(c, http.StatusOK, "Password has been reset successfully.", echo.Map{})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get(middleware.CtxUserID).(uint)

	var req struct {
		OldPassword     string `json:"old_password"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	err := h.Svc.ChangePassword(ctx, userID, req.OldPassword, req.Password, req.PasswordConfirm)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			return validationFailed(c, ve)
		case errors.Is(err, service.ErrWrongPassword):
			return errorResponse(c, http.StatusUnauthorized, "Invalid current password.", echo.Map{})
		}
		return err
	}
	return successResponse(c, http.StatusOK, "Password has been changed successfully.", echo.Map{})
}
