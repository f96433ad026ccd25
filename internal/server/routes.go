package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Auth
	s.echo.POST("/api/auth/signup", s.handleSignup)
	s.echo.POST("/api/auth/login", s.handleLogin, loginRateLimiter())
	s.echo.POST("/api/auth/logout", s.handleLogout)

	// Tracking (authenticated)
	tracking := s.echo.Group("/api/tracking", s.requireAuth)
	tracking.POST("/coins", s.handleAddCoins)
	tracking.POST("/coins-loss", s.handleCoinsLoss)
	tracking.POST("/sessions", s.handleFinalizeSession)
	tracking.GET("/stats", s.handleStats)
	tracking.GET("/dashboard", s.handleDashboard)
	tracking.GET("/history", s.handleHistory)
	tracking.GET("/weekly-stats", s.handleWeeklyStats)
	tracking.GET("/monthly-activity", s.handleMonthlyActivity)
	tracking.POST("/notes", s.handleSaveNote)
	tracking.GET("/notes", s.handleNotes)

	// Leaderboard needs Redis behind it
	if s.redisClient != nil {
		s.echo.GET("/api/leaderboard", s.handleLeaderboard, s.requireAuth)
	}

	// Detector endpoints exist only when a command is configured
	if s.detector != nil && s.detector.Configured() {
		det := s.echo.Group("/api/detector", s.requireAuth)
		det.POST("/start", s.handleDetectorStart)
		det.POST("/stop", s.handleDetectorStop)
		det.GET("/status", s.handleDetectorStatus)
	}
}
