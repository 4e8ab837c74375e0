package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"scribe/internal/domain"
	"scribe/internal/infra"
	"scribe/internal/ledger"
	"scribe/internal/middleware"
	"scribe/internal/pipeline"
)

// PipelineRunner is the pipeline surface the transcription handler consumes.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// LedgerAPI is the ledger surface the subscription handlers consume.
type LedgerAPI interface {
	Snapshot(ctx context.Context, userID string) (*ledger.Balance, error)
	Credit(ctx context.Context, userID string, minutes int) (int, error)
	ChangeTier(ctx context.Context, userID string, newTier domain.Tier) error
	ReplenishIfExpired(ctx context.Context, userID string) (bool, error)
}

// App is the handler container; dependencies are injected once at startup.
type App struct {
	Config      *infra.Config
	Logger      zerolog.Logger
	Pipeline    PipelineRunner
	Ledger      LedgerAPI
	Transcripts domain.TranscriptRepository
	Prompts     domain.PromptRepository
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ok writes the success envelope around a data payload.
func (a *App) ok(w http.ResponseWriter, code int, data any) {
	a.json(w, code, map[string]any{"success": true, "data": data})
}

// fail writes the failure envelope.
func (a *App) fail(w http.ResponseWriter, code int, message, detail string) {
	body := map[string]any{"success": false, "message": message}
	if detail != "" {
		body["error"] = detail
	}
	a.json(w, code, body)
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
