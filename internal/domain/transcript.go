package domain

import "time"

// Transcript is the durable record of one pipeline run. TextRaw is the
// transcription output and is never rewritten; TextFinal falls back to
// TextRaw when the correction stage is skipped or fails.
type Transcript struct {
	ID              string
	UserID          string
	AudioRef        string
	DurationSeconds float64
	TextRaw         string
	TextFinal       string
	PromptUsed      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
