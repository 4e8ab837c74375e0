package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"scribe/internal/domain"
)

type promptDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

func promptToDTO(p domain.Prompt) promptDTO {
	return promptDTO{
		ID:        p.ID,
		Name:      p.Name,
		Content:   p.Content,
		System:    p.UserID == nil,
		CreatedAt: p.CreatedAt,
	}
}

// PromptsList returns system defaults plus the caller's own templates.
func (a *App) PromptsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	items, err := a.Prompts.ListForUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list prompts failed")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	dtos := make([]promptDTO, 0, len(items))
	for _, p := range items {
		dtos = append(dtos, promptToDTO(p))
	}
	a.ok(w, http.StatusOK, map[string]any{"items": dtos})
}

type promptCreateRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// PromptsCreate stores a user-owned style-guidance template.
func (a *App) PromptsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req promptCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Content = strings.TrimSpace(req.Content)
	if req.Name == "" || req.Content == "" {
		a.fail(w, http.StatusBadRequest, "name and content are required", "")
		return
	}
	prompt := &domain.Prompt{
		ID:      uuid.NewString(),
		UserID:  &userID,
		Name:    req.Name,
		Content: req.Content,
	}
	if err := a.Prompts.Create(r.Context(), prompt); err != nil {
		a.Logger.Error().Err(err).Msg("create prompt failed")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	a.ok(w, http.StatusCreated, promptToDTO(*prompt))
}
