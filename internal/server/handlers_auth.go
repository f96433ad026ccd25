package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studypulse/studypulse/internal/domain"
	apperrors "github.com/studypulse/studypulse/internal/errors"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Coins     int       `json:"coins"`
	Streak    int       `json:"streak"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAccountResponse(acc *domain.Account) accountResponse {
	return accountResponse{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Email:     acc.Email,
		Coins:     acc.Coins,
		Streak:    acc.Streak,
		CreatedAt: acc.CreatedAt,
	}
}

func (s *Server) handleSignup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	acc, err := s.app.Signup(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	if err := s.createSession(c, acc); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAccountResponse(acc))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	acc, err := s.app.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	if err := s.createSession(c, acc); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(acc))
}

func (s *Server) handleLogout(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session during logout", "error", err)
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			return apperrors.InternalError("failed to clear session", err)
		}
	}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to clear session", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) createSession(c echo.Context, acc *domain.Account) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		// A stale or tampered cookie still yields a usable new session.
		slog.Warn("Failed to decode existing session", "error", err)
	}
	session.Values[sessionKeyAccountID] = acc.ID.String()

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}
	return nil
}
