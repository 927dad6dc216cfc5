package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatekeeper/gatekeeper/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Guard       *middleware.Guard
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = HTTPErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")

	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/confirm", d.AuthHandler.Confirm)
	auth.POST("/resend-confirmation", d.AuthHandler.ResendConfirmation)
	auth.POST("/reset-password/email", d.AuthHandler.ResetPasswordEmail)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)

	refresh := auth.Group("", d.Guard.RequireRefresh)
	refresh.POST("/refresh", d.AuthHandler.Refresh)
	refresh.DELETE("/revoke-refresh-token", d.AuthHandler.RevokeRefreshToken)

	private := auth.Group("", d.Guard.RequireAuth)
	private.DELETE("/revoke-access-token", d.AuthHandler.RevokeAccessToken)
	private.POST("/change-password", d.AuthHandler.ChangePassword)
	private.DELETE("/account", d.AuthHandler.DeleteAccount)

	active := auth.Group("/account", d.Guard.RequireAuth, d.Guard.RequireActiveAccount)
	active.GET("", d.AuthHandler.Account)
	active.PATCH("", d.AuthHandler.UpdateAccount)
}
