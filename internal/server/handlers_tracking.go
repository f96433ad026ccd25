package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studypulse/studypulse/internal/accounting"
	"github.com/studypulse/studypulse/internal/domain"
	apperrors "github.com/studypulse/studypulse/internal/errors"
)

type coinsRequest struct {
	Amount int `json:"amount"`
}

type coinsLossRequest struct {
	Loss int `json:"loss"`
}

type sessionRequest struct {
	VideoID        string `json:"videoId"`
	URL            string `json:"url"`
	SecondsWatched int    `json:"secondsWatched"`
	TabSwitches    int    `json:"tabSwitches"`
	Note           string `json:"note"`
	Tag            string `json:"tag"`
	WatchedDay     string `json:"watchedDay"`
}

type statsResponse struct {
	Coins          int `json:"coins"`
	VideosWatched  int `json:"videosWatched"`
	VideosSwitched int `json:"videosSwitched"`
	Streak         int `json:"streak"`
}

type sessionResponse struct {
	ID             int64     `json:"id"`
	VideoID        string    `json:"videoId"`
	URL            string    `json:"url"`
	WatchedDay     string    `json:"watchedDay"`
	SecondsWatched int       `json:"secondsWatched"`
	TabSwitches    int       `json:"tabSwitches"`
	Note           string    `json:"note"`
	Tag            string    `json:"tag"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toStatsResponse(acc *domain.Account) statsResponse {
	return statsResponse{
		Coins:          acc.Coins,
		VideosWatched:  acc.VideosWatched,
		VideosSwitched: acc.VideosSwitched,
		Streak:         acc.Streak,
	}
}

func toSessionResponses(sessions []domain.WatchSession) []sessionResponse {
	out := make([]sessionResponse, len(sessions))
	for i, sess := range sessions {
		out[i] = sessionResponse{
			ID:             sess.ID,
			VideoID:        sess.VideoID,
			URL:            sess.URL,
			WatchedDay:     sess.WatchedDay.String(),
			SecondsWatched: sess.SecondsWatched,
			TabSwitches:    sess.TabSwitches,
			Note:           sess.Note,
			Tag:            sess.Tag,
			CreatedAt:      sess.CreatedAt,
		}
	}
	return out
}

func (s *Server) handleAddCoins(c echo.Context) error {
	var req coinsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	acc, err := s.app.AddCoins(c.Request().Context(), currentAccountID(c), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(acc))
}

func (s *Server) handleCoinsLoss(c echo.Context) error {
	var req coinsLossRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	acc, err := s.app.RecordTabSwitch(c.Request().Context(), currentAccountID(c), req.Loss)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(acc))
}

func (s *Server) handleFinalizeSession(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	// The client reports its local calendar day; absent that, the server
	// clock decides.
	var day domain.Day
	if req.WatchedDay != "" {
		var err error
		day, err = domain.ParseDay(req.WatchedDay)
		if err != nil {
			return apperrors.ValidationError("invalid watchedDay, want YYYY-MM-DD")
		}
	}

	in := accounting.SessionInput{
		VideoID:        req.VideoID,
		URL:            req.URL,
		SecondsWatched: req.SecondsWatched,
		TabSwitches:    req.TabSwitches,
		Note:           req.Note,
		Tag:            req.Tag,
	}

	acc, sess, err := s.app.FinalizeSession(c.Request().Context(), currentAccountID(c), in, day)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"stats":   toStatsResponse(acc),
		"session": toSessionResponses([]domain.WatchSession{*sess})[0],
	})
}

func (s *Server) handleStats(c echo.Context) error {
	acc, err := s.app.Stats(c.Request().Context(), currentAccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(acc))
}

func (s *Server) handleDashboard(c echo.Context) error {
	acc, recent, err := s.app.Dashboard(c.Request().Context(), currentAccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"stats":          toStatsResponse(acc),
		"recentSessions": toSessionResponses(recent),
	})
}

func (s *Server) handleHistory(c echo.Context) error {
	sessions, err := s.app.History(c.Request().Context(), currentAccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponses(sessions))
}

func (s *Server) handleWeeklyStats(c echo.Context) error {
	week, err := s.app.WeeklyStats(c.Request().Context(), currentAccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, week)
}

func (s *Server) handleMonthlyActivity(c echo.Context) error {
	totals, err := s.app.MonthlyActivity(c.Request().Context(), currentAccountID(c))
	if err != nil {
		return err
	}

	type dayActivity struct {
		Day          string `json:"day"`
		TotalSeconds int    `json:"totalSeconds"`
	}
	out := make([]dayActivity, len(totals))
	for i, t := range totals {
		out[i] = dayActivity{Day: t.Day.String(), TotalSeconds: t.TotalSeconds}
	}
	return c.JSON(http.StatusOK, out)
}
