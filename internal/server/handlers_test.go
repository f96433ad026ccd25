package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse/internal/accounting"
	"github.com/studypulse/studypulse/internal/app"
	"github.com/studypulse/studypulse/internal/config"
	"github.com/studypulse/studypulse/internal/detector"
	"github.com/studypulse/studypulse/internal/domain"
	apperrors "github.com/studypulse/studypulse/internal/errors"
)

// --- Mock implementations ---

type mockService struct {
	signupFn          func(ctx context.Context, name, email, password string) (*domain.Account, error)
	loginFn           func(ctx context.Context, email, password string) (*domain.Account, error)
	recordTabSwitchFn func(ctx context.Context, accountID uuid.UUID, penalty int) (*domain.Account, error)
	addCoinsFn        func(ctx context.Context, accountID uuid.UUID, delta int) (*domain.Account, error)
	finalizeSessionFn func(ctx context.Context, accountID uuid.UUID, in accounting.SessionInput, day domain.Day) (*domain.Account, *domain.WatchSession, error)
	statsFn           func(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	dashboardFn       func(ctx context.Context, accountID uuid.UUID) (*domain.Account, []domain.WatchSession, error)
	historyFn         func(ctx context.Context, accountID uuid.UUID) ([]domain.WatchSession, error)
	weeklyStatsFn     func(ctx context.Context, accountID uuid.UUID) ([]app.DayMinutes, error)
	monthlyActivityFn func(ctx context.Context, accountID uuid.UUID) ([]domain.DayTotal, error)
	saveNoteTagFn     func(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string) error
	notesFn           func(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error)
	leaderboardFn     func(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

func (m *mockService) Signup(ctx context.Context, name, email, password string) (*domain.Account, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, name, email, password)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) Login(ctx context.Context, email, password string) (*domain.Account, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) RecordTabSwitch(ctx context.Context, accountID uuid.UUID, penalty int) (*domain.Account, error) {
	if m.recordTabSwitchFn != nil {
		return m.recordTabSwitchFn(ctx, accountID, penalty)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) AddCoins(ctx context.Context, accountID uuid.UUID, delta int) (*domain.Account, error) {
	if m.addCoinsFn != nil {
		return m.addCoinsFn(ctx, accountID, delta)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) FinalizeSession(ctx context.Context, accountID uuid.UUID, in accounting.SessionInput, day domain.Day) (*domain.Account, *domain.WatchSession, error) {
	if m.finalizeSessionFn != nil {
		return m.finalizeSessionFn(ctx, accountID, in, day)
	}
	return nil, nil, fmt.Errorf("not implemented")
}

func (m *mockService) Stats(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, accountID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) Dashboard(ctx context.Context, accountID uuid.UUID) (*domain.Account, []domain.WatchSession, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, accountID)
	}
	return nil, nil, fmt.Errorf("not implemented")
}

func (m *mockService) History(ctx context.Context, accountID uuid.UUID) ([]domain.WatchSession, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, accountID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) WeeklyStats(ctx context.Context, accountID uuid.UUID) ([]app.DayMinutes, error) {
	if m.weeklyStatsFn != nil {
		return m.weeklyStatsFn(ctx, accountID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) MonthlyActivity(ctx context.Context, accountID uuid.UUID) ([]domain.DayTotal, error) {
	if m.monthlyActivityFn != nil {
		return m.monthlyActivityFn(ctx, accountID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) SaveNoteTag(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string) error {
	if m.saveNoteTagFn != nil {
		return m.saveNoteTagFn(ctx, accountID, videoID, note, tag)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockService) Notes(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error) {
	if m.notesFn != nil {
		return m.notesFn(ctx, accountID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	if m.leaderboardFn != nil {
		return m.leaderboardFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

// --- Test helpers ---

func newTestServer(t *testing.T, svc appService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()
	// Install error middleware for tests to match production behavior
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:         e,
		config:       &config.Config{AppEnv: "test", Port: "0", CORSOrigin: "http://localhost:5173"},
		app:          svc,
		sessionStore: store,
		db:           &mockPinger{},
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withDetector(det *detector.Manager) func(*Server) {
	return func(s *Server) {
		s.detector = det
	}
}

func withPostgresCheck(p postgresPinger) func(*Server) {
	return func(s *Server) {
		s.db = p
	}
}

// authCookie produces a valid session cookie for the given account.
func authCookie(t *testing.T, srv *Server, accountID uuid.UUID) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyAccountID] = accountID.String()
	require.NoError(t, session.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

// doJSON runs a request through the full echo stack.
func doJSON(srv *Server, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func testServerAccount() *domain.Account {
	return &domain.Account{
		ID:     uuid.New(),
		Name:   "alice",
		Email:  "alice@example.com",
		Coins:  50,
		Streak: 2,
	}
}
