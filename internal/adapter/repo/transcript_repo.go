package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scribe/internal/domain"
)

// TranscriptRepositoryPG implements domain.TranscriptRepository.
type TranscriptRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTranscriptRepository creates a new transcript repository backed by PostgreSQL.
func NewTranscriptRepository(pool *pgxpool.Pool) *TranscriptRepositoryPG {
	return &TranscriptRepositoryPG{pool: pool}
}

// Create inserts a transcript record. The pipeline writes each transcript
// exactly once; text_raw is never updated afterwards.
func (r *TranscriptRepositoryPG) Create(ctx context.Context, t *domain.Transcript) error {
	query := `
INSERT INTO transcripts (id, user_id, audio_ref, duration_seconds, text_raw, text_final, prompt_used)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		t.ID,
		t.UserID,
		t.AudioRef,
		t.DurationSeconds,
		t.TextRaw,
		t.TextFinal,
		t.PromptUsed,
	)
	return row.Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a transcript by its identifier.
func (r *TranscriptRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Transcript, error) {
	query := `
SELECT id, user_id, audio_ref, duration_seconds, text_raw, text_final, prompt_used, created_at, updated_at
FROM transcripts
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTranscript(row)
}

// ListByUserID returns the user's transcripts, newest first.
func (r *TranscriptRepositoryPG) ListByUserID(ctx context.Context, userID string, limit int) ([]domain.Transcript, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT id, user_id, audio_ref, duration_seconds, text_raw, text_final, prompt_used, created_at, updated_at
FROM transcripts
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Transcript
	for rows.Next() {
		var t domain.Transcript
		if err := rows.Scan(&t.ID, &t.UserID, &t.AudioRef, &t.DurationSeconds, &t.TextRaw, &t.TextFinal, &t.PromptUsed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func scanTranscript(row pgx.Row) (*domain.Transcript, error) {
	var t domain.Transcript
	if err := row.Scan(&t.ID, &t.UserID, &t.AudioRef, &t.DurationSeconds, &t.TextRaw, &t.TextFinal, &t.PromptUsed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

var _ domain.TranscriptRepository = (*TranscriptRepositoryPG)(nil)
