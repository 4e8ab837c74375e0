package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"scribe/internal/domain"
	"scribe/internal/pipeline"
)

type transcriptionData struct {
	TranscriptID     string  `json:"transcript_id"`
	RawTranscript    string  `json:"raw_transcript"`
	FinalText        string  `json:"final_text"`
	Duration         float64 `json:"duration"`
	Language         string  `json:"language,omitempty"`
	PromptUsed       string  `json:"prompt_used"`
	CorrectionFailed bool    `json:"correction_failed,omitempty"`
	CorrectionError  string  `json:"correction_error,omitempty"`
	MinutesCharged   int     `json:"minutes_charged,omitempty"`
	BalanceRemaining int     `json:"balance_remaining,omitempty"`
}

// TranscriptionsCreate accepts a multipart audio upload, runs the
// transcription-correction pipeline, and renders one of the three outcome
// envelopes: full success, degraded (raw text, correction_failed set), or
// terminal failure.
func (a *App) TranscriptionsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	if err := r.ParseMultipartForm(a.Config.MaxUploadBytes); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid multipart payload", err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		a.fail(w, http.StatusBadRequest, "audio file is required", "")
		return
	}
	defer func() {
		_ = file.Close()
	}()
	audio, err := io.ReadAll(io.LimitReader(file, a.Config.MaxUploadBytes+1))
	if err != nil {
		a.fail(w, http.StatusBadRequest, "failed to read audio file", err.Error())
		return
	}
	if int64(len(audio)) > a.Config.MaxUploadBytes {
		a.fail(w, http.StatusRequestEntityTooLarge, "audio file too large", "")
		return
	}

	guidance := strings.TrimSpace(r.FormValue("style_guidance"))
	if promptID := strings.TrimSpace(r.FormValue("prompt_id")); promptID != "" && guidance == "" {
		prompt, err := a.Prompts.GetByID(r.Context(), promptID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.fail(w, http.StatusNotFound, "unknown prompt", "")
				return
			}
			a.Logger.Error().Err(err).Msg("load prompt failed")
			a.fail(w, http.StatusInternalServerError, "internal error", "")
			return
		}
		if !prompt.VisibleTo(userID) {
			a.fail(w, http.StatusForbidden, "prompt not accessible", "")
			return
		}
		guidance = prompt.Content
	}

	result, err := a.Pipeline.Run(r.Context(), pipeline.Request{
		UserID:        userID,
		Audio:         audio,
		Filename:      header.Filename,
		MIMEType:      header.Header.Get("Content-Type"),
		StyleGuidance: guidance,
	})
	if err != nil {
		a.renderPipelineError(w, err)
		return
	}

	a.ok(w, http.StatusOK, transcriptionData{
		TranscriptID:     result.TranscriptID,
		RawTranscript:    result.TextRaw,
		FinalText:        result.TextFinal,
		Duration:         result.DurationSeconds,
		Language:         result.Language,
		PromptUsed:       result.PromptUsed,
		CorrectionFailed: result.CorrectionFailed,
		CorrectionError:  result.CorrectionError,
		MinutesCharged:   result.MinutesCharged,
		BalanceRemaining: result.BalanceRemaining,
	})
}

func (a *App) renderPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.fail(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		a.fail(w, http.StatusForbidden, "insufficient balance", err.Error())
	case errors.Is(err, domain.ErrLedgerNotFound):
		a.Logger.Error().Err(err).Msg("ledger row missing for authenticated user")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
	case errors.Is(err, domain.ErrProviderFailure):
		a.fail(w, http.StatusBadGateway, "Transcription failed", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("pipeline failed unexpectedly")
		a.fail(w, http.StatusInternalServerError, "Transcription failed", err.Error())
	}
}
