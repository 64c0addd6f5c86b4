package server

import (
	"errors"
	"net/http"

	"github.com/homy/homyadmin/api"
	"github.com/homy/homyadmin/homy"
	"github.com/homy/homyadmin/table"
	"github.com/labstack/echo/v4"
)

func (s *server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := s.sess.Token(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		}
		return next(c)
	}
}

func (s *server) handleLogin(c echo.Context) error {
	var req api.LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	if err := s.api.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handleLogout forgets the token and tears down every view, they were loaded with
// the old identity.
func (s *server) handleLogout(c echo.Context) error {
	if err := s.api.Logout(c.Request().Context()); err != nil {
		return err
	}
	var names []string
	s.views.Range(func(name string, _ handle) bool {
		names = append(names, name)
		return true
	})
	for _, name := range names {
		s.dropView(name)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) handleDashboard(c echo.Context) error {
	stats, err := s.api.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// errorHandler maps upstream and view errors to HTTP statuses before handing over
// to echo's default handler.
func (s *server) errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		var ae *homy.Error
		switch {
		case errors.As(err, &he):
		case errors.As(err, &ae):
			code := ae.Code
			if code < 400 || code > 599 {
				code = http.StatusBadGateway
			}
			err = echo.NewHTTPError(code, ae.Message).SetInternal(err)
		case errors.Is(err, ErrUnknownView):
			err = echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, table.ErrBusy):
			err = echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			err = echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
