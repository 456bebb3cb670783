package webserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/feelwritelabs/feelwrite/internal/auth"
	"github.com/feelwritelabs/feelwrite/internal/store"
)

func (s *Server) handleRegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", page{Title: "Sign up"})
}

// handleRegister creates an account and sends the user to the login
// page. Duplicate usernames re-render the form with an error.
func (s *Server) handleRegister(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	renderError := func(status int, msg string) error {
		return c.Render(status, "register.html", page{
			Title: "Sign up",
			Error: msg,
			Form:  map[string]string{"username": username},
		})
	}

	if username == "" || password == "" {
		return renderError(http.StatusBadRequest, "username and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("password hash failed", zap.Error(err))
		return s.errorPage(c, http.StatusInternalServerError, "could not create the account")
	}

	user := &store.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return renderError(http.StatusBadRequest, "username already exists")
		}
		s.logger.Error("user insert failed", zap.Error(err))
		return s.errorPage(c, http.StatusInternalServerError, "could not create the account")
	}

	s.logger.Info("user registered", zap.String("username", username))
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) handleLoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", page{Title: "Log in"})
}

// handleLogin checks the credentials and issues a session cookie.
//
// Unknown usernames and wrong passwords share one message so the form
// does not reveal which accounts exist.
func (s *Server) handleLogin(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	renderError := func(status int, msg string) error {
		return c.Render(status, "login.html", page{
			Title: "Log in",
			Error: msg,
			Form:  map[string]string{"username": username},
		})
	}

	if username == "" || password == "" {
		return renderError(http.StatusBadRequest, "username and password are required")
	}

	ctx := c.Request().Context()

	user, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return renderError(http.StatusUnauthorized, "invalid username or password")
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		return s.errorPage(c, http.StatusInternalServerError, "could not log in")
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return renderError(http.StatusUnauthorized, "invalid username or password")
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		s.logger.Error("session issue failed", zap.Error(err))
		return s.errorPage(c, http.StatusInternalServerError, "could not log in")
	}

	c.SetCookie(s.sessions.Cookie(token))
	s.logger.Info("user logged in", zap.String("username", username))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLogout(c echo.Context) error {
	c.SetCookie(s.sessions.ClearCookie())
	return c.Redirect(http.StatusSeeOther, "/login")
}
