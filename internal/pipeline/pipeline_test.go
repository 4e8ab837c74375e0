package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"scribe/internal/domain"
	"scribe/internal/providers/ai"
)

type stubSTT struct {
	result *ai.TranscribeResult
	err    error
	calls  int
}

func (s *stubSTT) Transcribe(ctx context.Context, req ai.TranscribeRequest) (*ai.TranscribeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubRewriter struct {
	result  *ai.RewriteResult
	err     error
	calls   int
	lastReq ai.RewriteRequest
}

func (s *stubRewriter) Rewrite(ctx context.Context, req ai.RewriteRequest) (*ai.RewriteResult, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubTranscripts struct {
	created []*domain.Transcript
	err     error
}

func (s *stubTranscripts) Create(ctx context.Context, t *domain.Transcript) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, t)
	return nil
}

func (s *stubTranscripts) GetByID(ctx context.Context, id string) (*domain.Transcript, error) {
	return nil, domain.ErrNotFound
}

func (s *stubTranscripts) ListByUserID(ctx context.Context, userID string, limit int) ([]domain.Transcript, error) {
	return nil, nil
}

type stubMeter struct {
	balance      int
	checkCalls   int
	debitCalls   int
	debitMinutes int
	debitErr     error
}

func (m *stubMeter) CheckBalance(ctx context.Context, userID string, requiredMinutes int) (bool, int, error) {
	m.checkCalls++
	return m.balance >= requiredMinutes, m.balance, nil
}

func (m *stubMeter) Debit(ctx context.Context, userID string, minutes int) (int, error) {
	m.debitCalls++
	m.debitMinutes = minutes
	if m.debitErr != nil {
		return 0, m.debitErr
	}
	m.balance -= minutes
	return m.balance, nil
}

type fixture struct {
	stt         *stubSTT
	rewriter    *stubRewriter
	transcripts *stubTranscripts
	meter       *stubMeter
	pipeline    *Pipeline
}

func newFixture(enforce bool) *fixture {
	f := &fixture{
		stt: &stubSTT{result: &ai.TranscribeResult{
			Text:            "um so today we're gonna talk about the roadmap",
			DurationSeconds: 125,
			Language:        "en",
		}},
		rewriter: &stubRewriter{result: &ai.RewriteResult{
			Text:       "Today we will discuss the roadmap.",
			PromptUsed: "Make this sound professional",
			TokensUsed: 42,
		}},
		transcripts: &stubTranscripts{},
		meter:       &stubMeter{balance: 100},
	}
	f.pipeline = New(Options{
		SpeechToText:   f.stt,
		Rewriter:       f.rewriter,
		Transcripts:    f.transcripts,
		Meter:          f.meter,
		Logger:         zerolog.Nop(),
		EnforceBalance: enforce,
	})
	return f
}

func validRequest() Request {
	return Request{
		UserID:        "u1",
		Audio:         []byte("audio-bytes"),
		Filename:      "standup.mp3",
		MIMEType:      "audio/mpeg",
		StyleGuidance: "Make this sound professional",
	}
}

func TestRunSuccess(t *testing.T) {
	f := newFixture(true)

	res, err := f.pipeline.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.TextRaw != f.stt.result.Text {
		t.Fatalf("TextRaw = %q", res.TextRaw)
	}
	if res.TextFinal != "Today we will discuss the roadmap." {
		t.Fatalf("TextFinal = %q", res.TextFinal)
	}
	if res.PromptUsed != "Make this sound professional" {
		t.Fatalf("PromptUsed = %q", res.PromptUsed)
	}
	if res.CorrectionFailed {
		t.Fatal("CorrectionFailed should be false")
	}
	if res.TranscriptID == "" {
		t.Fatal("expected a transcript ID")
	}
	// 125 seconds rounds up to 3 billable minutes.
	if res.MinutesCharged != 3 {
		t.Fatalf("MinutesCharged = %d, want 3", res.MinutesCharged)
	}
	if res.BalanceRemaining != 97 {
		t.Fatalf("BalanceRemaining = %d, want 97", res.BalanceRemaining)
	}

	if len(f.transcripts.created) != 1 {
		t.Fatalf("created %d transcripts, want 1", len(f.transcripts.created))
	}
	saved := f.transcripts.created[0]
	if saved.TextRaw != res.TextRaw || saved.TextFinal != res.TextFinal || saved.PromptUsed != res.PromptUsed {
		t.Fatalf("persisted transcript mismatch: %+v", saved)
	}
	if f.rewriter.lastReq.StyleGuidance != "Make this sound professional" {
		t.Fatalf("rewrite guidance = %q", f.rewriter.lastReq.StyleGuidance)
	}
}

func TestRunMissingAudio(t *testing.T) {
	f := newFixture(true)

	req := validRequest()
	req.Audio = nil
	_, err := f.pipeline.Run(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if f.stt.calls != 0 || f.rewriter.calls != 0 {
		t.Fatal("no provider call expected for invalid input")
	}
	if f.meter.debitCalls != 0 {
		t.Fatal("no debit expected for invalid input")
	}
}

func TestRunInsufficientBalance(t *testing.T) {
	f := newFixture(true)
	f.meter.balance = 0

	_, err := f.pipeline.Run(context.Background(), validRequest())
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if f.stt.calls != 0 {
		t.Fatal("transcription must not run when the balance gate fails")
	}
	if f.meter.debitCalls != 0 {
		t.Fatal("no debit expected when the balance gate fails")
	}
}

func TestRunTranscriptionFailure(t *testing.T) {
	f := newFixture(true)
	f.stt.err = &ai.ProviderError{Kind: ai.KindQuotaExceeded, Provider: "openai", Message: "quota exhausted"}

	_, err := f.pipeline.Run(context.Background(), validRequest())
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
	if f.rewriter.calls != 0 {
		t.Fatal("rewrite must not run after a transcription failure")
	}
	if len(f.transcripts.created) != 0 {
		t.Fatal("nothing should be persisted after a transcription failure")
	}
	if f.meter.debitCalls != 0 {
		t.Fatal("no debit expected after a transcription failure")
	}
}

func TestRunRewriteFailureDegrades(t *testing.T) {
	f := newFixture(true)
	f.rewriter.err = &ai.ProviderError{Kind: ai.KindRateLimited, Provider: "openai", Message: "slow down"}

	res, err := f.pipeline.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.CorrectionFailed {
		t.Fatal("CorrectionFailed should be set")
	}
	if res.TextFinal != res.TextRaw {
		t.Fatalf("TextFinal = %q, want raw text", res.TextFinal)
	}
	if res.CorrectionError == "" {
		t.Fatal("expected a correction error message")
	}
	if res.PromptUsed != "Make this sound professional" {
		t.Fatalf("PromptUsed = %q, want caller guidance", res.PromptUsed)
	}

	// A degraded run is still a billable, persisted run.
	if len(f.transcripts.created) != 1 {
		t.Fatalf("created %d transcripts, want 1", len(f.transcripts.created))
	}
	if f.meter.debitCalls != 1 {
		t.Fatalf("debitCalls = %d, want 1", f.meter.debitCalls)
	}
}

func TestRunRewriteFailureWithoutGuidance(t *testing.T) {
	f := newFixture(true)
	f.rewriter.err = errors.New("connection reset")

	req := validRequest()
	req.StyleGuidance = ""
	res, err := f.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.PromptUsed != promptUnavailable {
		t.Fatalf("PromptUsed = %q, want %q", res.PromptUsed, promptUnavailable)
	}
}

func TestRunPersistenceFailureIsNotFatal(t *testing.T) {
	f := newFixture(true)
	f.transcripts.err = errors.New("db down")

	res, err := f.pipeline.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.TranscriptID != "" {
		t.Fatalf("TranscriptID = %q, want empty", res.TranscriptID)
	}
	if res.TextFinal == "" {
		t.Fatal("expected usable text despite storage failure")
	}
	// Usage was still consumed; the debit happens regardless.
	if f.meter.debitCalls != 1 {
		t.Fatalf("debitCalls = %d, want 1", f.meter.debitCalls)
	}
}

func TestRunDebitFailureIsNotFatal(t *testing.T) {
	f := newFixture(true)
	f.meter.debitErr = errors.New("db down")

	res, err := f.pipeline.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.MinutesCharged != 0 {
		t.Fatalf("MinutesCharged = %d, want 0", res.MinutesCharged)
	}
	if res.TextFinal == "" {
		t.Fatal("expected usable text despite debit failure")
	}
}

func TestRunUnmetered(t *testing.T) {
	f := newFixture(false)
	f.meter.balance = 0

	res, err := f.pipeline.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if f.meter.checkCalls != 0 || f.meter.debitCalls != 0 {
		t.Fatal("meter must not be touched when enforcement is off")
	}
	if res.MinutesCharged != 0 {
		t.Fatalf("MinutesCharged = %d, want 0", res.MinutesCharged)
	}
}
