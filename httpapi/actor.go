// Package httpapi is the request surface (C11's transport half): Echo
// handlers that translate spec §6's operation list into calls against
// engine.Engine, and the engine's tmferrors.Kind taxonomy back into
// HTTP status codes.
//
// Grounded on http/server.go's Echo setup and api/authorization.go's
// context-storage idiom: SetActor/GetActor replace that file's
// SetUser/GetUser, since authorization here is role-and-ownership
// based (already enforced inside engine/statemachine/lifecycle) rather
// than OAuth-scope based, so there is no RequireScope equivalent to
// carry over.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tmf.evalgo.org/auth"
)

const contextKeyPrincipalID = "tmf_principal_id"

// SetActor stores the id of the Principal making the current request.
func SetActor(c echo.Context, principalID string) {
	c.Set(contextKeyPrincipalID, principalID)
}

// GetActor retrieves the id of the Principal making the current
// request, set by AuthMiddleware after validating its bearer token.
func GetActor(c echo.Context) (string, bool) {
	id, ok := c.Get(contextKeyPrincipalID).(string)
	return id, ok && id != ""
}

// AuthMiddleware verifies the bearer token on every request and
// stores the token's principal id on the Echo context for handlers to
// pass through to engine.Engine. It performs no role or scope checks
// of its own: every operation's authorization is the state machine's
// job (spec §3's AuthorizeSubmit and friends already run inside
// engine), so this middleware's only responsibility is establishing
// who is asking.
func AuthMiddleware(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, prefix))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			SetActor(c, claims.PrincipalID)
			return next(c)
		}
	}
}
