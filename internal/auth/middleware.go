package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/feelwritelabs/feelwrite/internal/store"
)

// userContextKey is the echo context key holding the authenticated user.
const userContextKey = "feelwrite.user"

// RequireUser resolves the session cookie into an authenticated user and
// stores it on the request context. Browser requests without a valid
// session are redirected to /login; API requests get a plain 401.
func RequireUser(sessions *Sessions, users store.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return unauthenticated(c)
			}

			claims, err := sessions.Verify(cookie.Value)
			if err != nil {
				return unauthenticated(c)
			}

			id, err := store.ParseID(claims.UserID)
			if err != nil {
				return unauthenticated(c)
			}

			user, err := users.UserByID(c.Request().Context(), id)
			if err != nil {
				// Also covers sessions of deleted accounts.
				return unauthenticated(c)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func unauthenticated(c echo.Context) error {
	if wantsJSON(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.Redirect(http.StatusFound, "/login")
}

func wantsJSON(c echo.Context) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// CurrentUser returns the authenticated user stored by RequireUser.
func CurrentUser(c echo.Context) (*store.User, bool) {
	user, ok := c.Get(userContextKey).(*store.User)
	return user, ok
}
