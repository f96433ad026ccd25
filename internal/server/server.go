// Package server wires the application service to the HTTP surface: echo
// routing, cookie sessions, and the JSON handlers the SPA talks to.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/studypulse/studypulse/internal/accounting"
	"github.com/studypulse/studypulse/internal/app"
	"github.com/studypulse/studypulse/internal/config"
	"github.com/studypulse/studypulse/internal/detector"
	"github.com/studypulse/studypulse/internal/domain"
	apperrors "github.com/studypulse/studypulse/internal/errors"
)

const (
	sessionName         = "studypulse_session"
	sessionKeyAccountID = "accountID"
	sessionMaxAgeDays   = 7
)

// appService is the slice of the application layer the handlers use.
type appService interface {
	Signup(ctx context.Context, name, email, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (*domain.Account, error)

	RecordTabSwitch(ctx context.Context, accountID uuid.UUID, penalty int) (*domain.Account, error)
	AddCoins(ctx context.Context, accountID uuid.UUID, delta int) (*domain.Account, error)
	FinalizeSession(ctx context.Context, accountID uuid.UUID, in accounting.SessionInput, day domain.Day) (*domain.Account, *domain.WatchSession, error)

	Stats(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	Dashboard(ctx context.Context, accountID uuid.UUID) (*domain.Account, []domain.WatchSession, error)
	History(ctx context.Context, accountID uuid.UUID) ([]domain.WatchSession, error)
	WeeklyStats(ctx context.Context, accountID uuid.UUID) ([]app.DayMinutes, error)
	MonthlyActivity(ctx context.Context, accountID uuid.UUID) ([]domain.DayTotal, error)

	SaveNoteTag(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string) error
	Notes(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error)

	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// postgresPinger is the minimal surface the readiness check needs.
type postgresPinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	app          appService
	detector     *detector.Manager
	sessionStore *sessions.CookieStore
	db           postgresPinger
	redisClient  *goredis.Client
	startTime    time.Time
}

// NewServer builds the HTTP server. The redis client and detector may be
// nil; their routes degrade or disappear accordingly.
func NewServer(cfg *config.Config, svc appService, det *detector.Manager, db postgresPinger, redisClient *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}))
	e.Use(apperrors.Middleware())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          svc,
		detector:     det,
		sessionStore: sessionStore,
		db:           db,
		redisClient:  redisClient,
		startTime:    time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
