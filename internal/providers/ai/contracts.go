package ai

import "context"

const openAIProviderName = "openai"

// TranscribeRequest carries one audio payload for speech-to-text.
type TranscribeRequest struct {
	Audio    []byte
	Filename string
	MIMEType string
}

// TranscribeResult is the outcome of a successful transcription.
type TranscribeResult struct {
	Text            string
	DurationSeconds float64
	Language        string
	Provider        string
}

// RewriteRequest carries raw text plus optional caller style guidance for
// the correction pass.
type RewriteRequest struct {
	Text          string
	StyleGuidance string
}

// RewriteResult is the outcome of a successful rewrite. PromptUsed echoes
// the guidance actually applied: the caller's text, or the built-in default
// when none was supplied.
type RewriteResult struct {
	Text       string
	PromptUsed string
	TokensUsed int
	Provider   string
}

// SpeechToText converts audio bytes to text.
type SpeechToText interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error)
}

// TextRewriter applies a style-guided correction pass over raw text.
type TextRewriter interface {
	Rewrite(ctx context.Context, req RewriteRequest) (*RewriteResult, error)
}
