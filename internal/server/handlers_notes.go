package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/studypulse/studypulse/internal/errors"
)

type noteRequest struct {
	VideoID string `json:"videoId"`
	// Pointers so "field absent" and "set to empty" stay distinguishable.
	NoteText *string `json:"noteText"`
	TagText  *string `json:"tagText"`
}

func (s *Server) handleSaveNote(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	err := s.app.SaveNoteTag(c.Request().Context(), currentAccountID(c), req.VideoID, req.NoteText, req.TagText)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleNotes(c echo.Context) error {
	ann, err := s.app.Notes(c.Request().Context(), currentAccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"notes": ann.Notes,
		"tags":  ann.Tags,
	})
}
