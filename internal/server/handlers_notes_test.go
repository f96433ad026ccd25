package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse/internal/domain"
)

func TestHandleSaveNote_NotePresent(t *testing.T) {
	var gotNote, gotTag *string
	svc := &mockService{
		saveNoteTagFn: func(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string) error {
			gotNote, gotTag = note, tag
			return nil
		},
	}
	srv := newTestServer(t, svc)
	cookie := authCookie(t, srv, uuid.New())

	rec := doJSON(srv, http.MethodPost, "/api/tracking/notes",
		`{"videoId":"vid1","noteText":"key insight"}`, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotNote)
	assert.Equal(t, "key insight", *gotNote)
	assert.Nil(t, gotTag, "absent field must stay nil")
}

func TestHandleSaveNote_EmptyStringIsNotAbsent(t *testing.T) {
	var gotNote *string
	svc := &mockService{
		saveNoteTagFn: func(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string) error {
			gotNote = note
			return nil
		},
	}
	srv := newTestServer(t, svc)
	cookie := authCookie(t, srv, uuid.New())

	rec := doJSON(srv, http.MethodPost, "/api/tracking/notes",
		`{"videoId":"vid1","noteText":""}`, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotNote, "explicit empty string clears the note")
	assert.Equal(t, "", *gotNote)
}

func TestHandleNotes(t *testing.T) {
	svc := &mockService{
		notesFn: func(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error) {
			return &domain.Annotations{
				Notes: map[string]string{"vid1": "note one"},
				Tags:  map[string]string{"vid1": "golang"},
			}, nil
		},
	}
	srv := newTestServer(t, svc)
	cookie := authCookie(t, srv, uuid.New())

	rec := doJSON(srv, http.MethodGet, "/api/tracking/notes", "", cookie)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notes map[string]string `json:"notes"`
		Tags  map[string]string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "note one", resp.Notes["vid1"])
	assert.Equal(t, "golang", resp.Tags["vid1"])
}
