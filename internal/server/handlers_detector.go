package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studypulse/studypulse/internal/domain"
	apperrors "github.com/studypulse/studypulse/internal/errors"
)

func (s *Server) handleDetectorStart(c echo.Context) error {
	if err := s.detector.Start(c.Request().Context()); err != nil {
		if errors.Is(err, domain.ErrDetectorRunning) {
			return apperrors.ConflictError("detector already running")
		}
		return apperrors.InternalError("failed to start detector", err)
	}
	return c.JSON(http.StatusOK, s.detector.Status())
}

func (s *Server) handleDetectorStop(c echo.Context) error {
	if err := s.detector.Stop(c.Request().Context()); err != nil {
		if errors.Is(err, domain.ErrDetectorStopped) {
			return apperrors.ConflictError("detector not running")
		}
		if errors.Is(err, domain.ErrDetectorStopTimeout) {
			return apperrors.ExternalError("detector did not exit in time", err)
		}
		return apperrors.InternalError("failed to stop detector", err)
	}
	return c.JSON(http.StatusOK, s.detector.Status())
}

func (s *Server) handleDetectorStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.detector.Status())
}
