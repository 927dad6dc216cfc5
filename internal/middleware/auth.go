package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gatekeeper/gatekeeper/internal/models"
	"github.com/gatekeeper/gatekeeper/internal/service"
	"github.com/gatekeeper/gatekeeper/internal/tokens"
)

// Context keys set by the guards.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxJTI    = "jti"
	CtxToken  = "token"
)

const (
	msgMissingToken  = "Missing authorization header."
	msgTokenExpired  = "Token has expired."
	msgTokenRevoked  = "Token has been revoked."
	msgInvalidToken  = "Invalid token."
	msgRefreshOnly   = "Only refresh tokens are allowed."
	msgAccessOnly    = "Only access tokens are allowed."
	msgInactive      = "Your account is inactive."
	msgAdminRequired = "Administrator rights required."
)

// Guard wraps handlers with token and account checks. Each guard
// short-circuits with a structured error before the handler runs.
type Guard struct {
	Svc *service.AuthService
}

func NewGuard(svc *service.AuthService) *Guard {
	return &Guard{Svc: svc}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, msgMissingToken)
	}
	return raw, nil
}

// RequireAuth admits requests carrying a valid, non-revoked access token.
func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, tokens.KindAccess, msgAccessOnly)
}

// RequireRefresh admits requests carrying a valid, non-revoked refresh token.
func (g *Guard) RequireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, tokens.KindRefresh, msgRefreshOnly)
}

func (g *Guard) require(next echo.HandlerFunc, kind tokens.Kind, wrongKindMsg string) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := bearerToken(c)
		if err != nil {
			return err
		}

		claims, err := g.Svc.Codec.Verify(raw, kind)
		if err != nil {
			switch {
			case errors.Is(err, tokens.ErrWrongKind):
				return echo.NewHTTPError(http.StatusUnprocessableEntity, wrongKindMsg)
			case errors.Is(err, tokens.ErrExpiredToken):
				return echo.NewHTTPError(http.StatusUnauthorized, msgTokenExpired)
			default:
				return echo.NewHTTPError(http.StatusUnprocessableEntity, msgInvalidToken)
			}
		}

		revoked, err := g.Svc.IsRevoked(c.Request().Context(), claims.ID)
		if err != nil {
			return err
		}
		if revoked {
			return echo.NewHTTPError(http.StatusUnauthorized, msgTokenRevoked)
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, msgInvalidToken)
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxJTI, claims.ID)
		c.Set(CtxToken, raw)

		return next(c)
	}
}

// RequireActiveAccount rejects authenticated but unconfirmed accounts.
// Must run after RequireAuth.
func (g *Guard) RequireActiveAccount(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := g.currentUser(c)
		if err != nil {
			return err
		}
		if !user.Active {
			return echo.NewHTTPError(http.StatusForbidden, msgInactive)
		}
		return next(c)
	}
}

// AdminOnly rejects users whose role lacks the administer permission.
// Must run after RequireAuth.
func (g *Guard) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := g.currentUser(c)
		if err != nil {
			return err
		}
		if !user.Can(models.PermissionAdminister) {
			return echo.NewHTTPError(http.StatusForbidden, msgAdminRequired)
		}
		return next(c)
	}
}

func (g *Guard) currentUser(c echo.Context) (*models.User, error) {
	userID, ok := c.Get(CtxUserID).(uint)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, msgMissingToken)
	}
	user, err := g.Svc.GetUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
		}
		return nil, err
	}
	return user, nil
}
