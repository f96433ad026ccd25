package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type leaderboardEntry struct {
	Name  string `json:"name"`
	Coins int    `json:"coins"`
	Rank  int    `json:"rank"`
}

func (s *Server) handleLeaderboard(c echo.Context) error {
	entries, err := s.app.Leaderboard(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]leaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = leaderboardEntry{Name: e.Name, Coins: e.Coins, Rank: i + 1}
	}
	return c.JSON(http.StatusOK, out)
}
