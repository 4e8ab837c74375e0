// Package pipeline orchestrates one transcription-correction run: balance
// check, speech-to-text, style rewrite, ledger debit, and best-effort
// persistence. The pipeline is stateless per request and holds no locks;
// correctness under concurrent requests rests on the ledger's atomic
// update discipline.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scribe/internal/domain"
	"scribe/internal/ledger"
	"scribe/internal/providers/ai"
)

// promptUnavailable is recorded as prompt_used when the rewrite stage never
// reported which guidance it applied.
const promptUnavailable = "unavailable"

// Meter is the slice of the balance ledger the pipeline consumes.
type Meter interface {
	CheckBalance(ctx context.Context, userID string, requiredMinutes int) (bool, int, error)
	Debit(ctx context.Context, userID string, minutes int) (int, error)
}

// Options wires the pipeline's collaborators. All dependencies are explicit;
// there is no global lookup.
type Options struct {
	SpeechToText ai.SpeechToText
	Rewriter     ai.TextRewriter
	Transcripts  domain.TranscriptRepository
	Meter        Meter
	Logger       zerolog.Logger
	// EnforceBalance gates transcription behind the ledger and debits the
	// consumed minutes afterwards. Disabled, the ledger is bypassed
	// entirely and usage goes unmetered.
	EnforceBalance bool
}

// Pipeline runs transcription-correction requests.
type Pipeline struct {
	stt            ai.SpeechToText
	rewriter       ai.TextRewriter
	transcripts    domain.TranscriptRepository
	meter          Meter
	logger         zerolog.Logger
	enforceBalance bool
}

// New builds a Pipeline from its collaborators.
func New(opts Options) *Pipeline {
	return &Pipeline{
		stt:            opts.SpeechToText,
		rewriter:       opts.Rewriter,
		transcripts:    opts.Transcripts,
		meter:          opts.Meter,
		logger:         opts.Logger,
		enforceBalance: opts.EnforceBalance,
	}
}

// Request is one inbound transcription job.
type Request struct {
	UserID        string
	Audio         []byte
	Filename      string
	MIMEType      string
	StyleGuidance string
}

// Result is the structured pipeline outcome. A degraded result still
// carries usable text: TextFinal equals TextRaw and CorrectionFailed is set.
type Result struct {
	TranscriptID     string
	TextRaw          string
	TextFinal        string
	DurationSeconds  float64
	Language         string
	PromptUsed       string
	TokensUsed       int
	CorrectionFailed bool
	CorrectionError  string
	MinutesCharged   int
	BalanceRemaining int
}

// Run executes the pipeline. A returned error means no usable text was
// produced: invalid input, insufficient balance, or transcription failure.
// Rewrite and persistence faults degrade instead of failing the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("%w: audio payload is required", domain.ErrInvalidInput)
	}

	if p.enforceBalance {
		// Every run costs at least one billable minute.
		has, balance, err := p.meter.CheckBalance(ctx, req.UserID, 1)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, fmt.Errorf("%w: %d minutes remaining", domain.ErrInsufficientBalance, balance)
		}
	}

	transcription, err := p.stt.Transcribe(ctx, ai.TranscribeRequest{
		Audio:    req.Audio,
		Filename: req.Filename,
		MIMEType: req.MIMEType,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("user_id", req.UserID).Msg("transcription failed")
		return nil, err
	}

	result := &Result{
		TextRaw:         transcription.Text,
		TextFinal:       transcription.Text,
		DurationSeconds: transcription.DurationSeconds,
		Language:        transcription.Language,
	}

	rewrite, rewriteErr := p.rewriter.Rewrite(ctx, ai.RewriteRequest{
		Text:          transcription.Text,
		StyleGuidance: req.StyleGuidance,
	})
	if rewriteErr != nil {
		result.CorrectionFailed = true
		result.CorrectionError = correctionMessage(rewriteErr)
		result.PromptUsed = fallbackPrompt(req.StyleGuidance)
		p.logger.Warn().Err(rewriteErr).Str("user_id", req.UserID).Msg("rewrite failed, returning raw transcript")
	} else {
		result.TextFinal = rewrite.Text
		result.PromptUsed = rewrite.PromptUsed
		result.TokensUsed = rewrite.TokensUsed
	}

	transcript := &domain.Transcript{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		AudioRef:        req.Filename,
		DurationSeconds: transcription.DurationSeconds,
		TextRaw:         transcription.Text,
		TextFinal:       result.TextFinal,
		PromptUsed:      result.PromptUsed,
	}
	if err := p.transcripts.Create(ctx, transcript); err != nil {
		// Best-effort durability: a storage fault never blocks the response.
		p.logger.Error().Err(err).Str("user_id", req.UserID).Msg("persist transcript failed")
	} else {
		result.TranscriptID = transcript.ID
	}

	if p.enforceBalance {
		minutes := ledger.MinutesForDuration(transcription.DurationSeconds)
		balance, err := p.meter.Debit(ctx, req.UserID, minutes)
		if err != nil {
			// The debit is not transactional with the provider call; a
			// failure here is accepted partial state, not a request error.
			p.logger.Error().Err(err).Str("user_id", req.UserID).Int("minutes", minutes).Msg("ledger debit failed")
		} else {
			result.MinutesCharged = minutes
			result.BalanceRemaining = balance
		}
	}

	return result, nil
}

// correctionMessage renders the degraded-result error string, preferring the
// classified provider taxonomy over raw error text.
func correctionMessage(err error) string {
	if pe, ok := ai.AsProviderError(err); ok {
		return pe.UserMessage()
	}
	return err.Error()
}

// fallbackPrompt is the prompt_used value when the rewrite stage failed: the
// caller's own guidance, or a literal marker when none was supplied.
func fallbackPrompt(guidance string) string {
	if guidance != "" {
		return guidance
	}
	return promptUnavailable
}
