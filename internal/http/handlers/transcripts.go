package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"scribe/internal/domain"
	"scribe/pkg/zip"
)

type transcriptDTO struct {
	ID              string    `json:"id"`
	AudioRef        string    `json:"audio_ref,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	TextRaw         string    `json:"text_raw"`
	TextFinal       string    `json:"text_final"`
	PromptUsed      string    `json:"prompt_used"`
	CreatedAt       time.Time `json:"created_at"`
}

func transcriptToDTO(t domain.Transcript) transcriptDTO {
	return transcriptDTO{
		ID:              t.ID,
		AudioRef:        t.AudioRef,
		DurationSeconds: t.DurationSeconds,
		TextRaw:         t.TextRaw,
		TextFinal:       t.TextFinal,
		PromptUsed:      t.PromptUsed,
		CreatedAt:       t.CreatedAt,
	}
}

// TranscriptsList returns the caller's transcripts, newest first.
func (a *App) TranscriptsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	items, err := a.Transcripts.ListByUserID(r.Context(), userID, limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list transcripts failed")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	dtos := make([]transcriptDTO, 0, len(items))
	for _, t := range items {
		dtos = append(dtos, transcriptToDTO(t))
	}
	a.ok(w, http.StatusOK, map[string]any{"items": dtos})
}

// TranscriptsGet returns one transcript owned by the caller.
func (a *App) TranscriptsGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.fail(w, http.StatusBadRequest, "id required", "")
		return
	}
	t, err := a.Transcripts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.fail(w, http.StatusNotFound, "transcript not found", "")
			return
		}
		a.Logger.Error().Err(err).Msg("load transcript failed")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	if t.UserID != userID {
		a.fail(w, http.StatusNotFound, "transcript not found", "")
		return
	}
	a.ok(w, http.StatusOK, transcriptToDTO(*t))
}

// TranscriptsExport bundles the caller's transcripts into a zip of text files.
func (a *App) TranscriptsExport(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	items, err := a.Transcripts.ListByUserID(r.Context(), userID, 200)
	if err != nil {
		a.Logger.Error().Err(err).Msg("export transcripts failed")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	entries := make([]zip.Entry, 0, len(items))
	for _, t := range items {
		name := fmt.Sprintf("%s-%s.txt", t.CreatedAt.UTC().Format("20060102-150405"), t.ID)
		entries = append(entries, zip.Entry{Name: name, Data: []byte(t.TextFinal)})
	}
	archive := zip.Archive(entries)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=transcripts.zip")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
