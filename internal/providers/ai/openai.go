package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// OpenAIOptions configures the OpenAI adapter.
type OpenAIOptions struct {
	APIKey          string
	BaseURL         string
	Organization    string
	TranscribeModel string
	RewriteModel    string
	HTTPClient      *http.Client
}

// OpenAIClient satisfies both SpeechToText and TextRewriter against the
// OpenAI HTTP API.
type OpenAIClient struct {
	apiKey          string
	baseURL         string
	organization    string
	transcribeModel string
	rewriteModel    string
	client          *http.Client
}

const openAIDefaultTimeout = 120 * time.Second

const (
	defaultTranscribeModel = "whisper-1"
	defaultRewriteModel    = "gpt-4o-mini"
)

type openAITranscription struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewOpenAIClient validates options and builds the adapter.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	transcribeModel := strings.TrimSpace(opts.TranscribeModel)
	if transcribeModel == "" {
		transcribeModel = defaultTranscribeModel
	}
	rewriteModel := strings.TrimSpace(opts.RewriteModel)
	if rewriteModel == "" {
		rewriteModel = defaultRewriteModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIClient{
		apiKey:          strings.TrimSpace(opts.APIKey),
		baseURL:         baseURL,
		organization:    strings.TrimSpace(opts.Organization),
		transcribeModel: transcribeModel,
		rewriteModel:    rewriteModel,
		client:          client,
	}, nil
}

// Transcribe uploads the audio payload to the transcription endpoint and
// returns the recognized text together with the reported duration and a
// normalized language tag.
func (o *OpenAIClient) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio payload", errInvalidRequest)
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "audio"
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := createAudioPart(form, filename, req.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("write audio part: %w", err)
	}
	if err := form.WriteField("model", o.transcribeModel); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	if err := form.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("write format field: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	endpoint := fmt.Sprintf("%s/audio/transcriptions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	o.authorize(httpReq)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, classify(openAIProviderName, 0, "", "", "", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, o.classifyResponse(resp)
	}

	var out openAITranscription
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Provider: openAIProviderName, Message: "decode transcription response: " + err.Error()}
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return nil, &ProviderError{Kind: KindUnknown, Provider: openAIProviderName, Message: "transcription response carried no text"}
	}
	return &TranscribeResult{
		Text:            text,
		DurationSeconds: out.Duration,
		Language:        normalizeLanguage(out.Language),
		Provider:        openAIProviderName,
	}, nil
}

// Rewrite runs the correction pass over raw text. The instruction combines
// the caller's style guidance (or the built-in default) with the fixed
// editing rules, and asks for a single JSON field named "corrected". An
// unparseable response is a failure; the pipeline decides fallback.
func (o *OpenAIClient) Rewrite(ctx context.Context, req RewriteRequest) (*RewriteResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: empty text", errInvalidRequest)
	}
	promptUsed := strings.TrimSpace(req.StyleGuidance)
	if promptUsed == "" {
		promptUsed = DefaultStyleGuidance
	}

	payload := openAIChatRequest{
		Model:       o.rewriteModel,
		Temperature: 0.3,
		ResponseFormat: &openAIFormat{
			Type: "json_object",
		},
		Messages: []openAIMessage{
			{Role: "system", Content: rewriteSystemPrompt},
			{Role: "user", Content: buildRewritePayload(req.Text, promptUsed)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	o.authorize(httpReq)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, classify(openAIProviderName, 0, "", "", "", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, o.classifyResponse(resp)
	}

	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Provider: openAIProviderName, Message: "decode chat response: " + err.Error()}
	}
	if len(out.Choices) == 0 {
		return nil, &ProviderError{Kind: KindUnknown, Provider: openAIProviderName, Message: "chat response carried no choices"}
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	corrected, err := parseCorrectedPayload(content)
	if err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Provider: openAIProviderName, Message: "parse corrected payload: " + err.Error()}
	}
	return &RewriteResult{
		Text:       corrected,
		PromptUsed: promptUsed,
		TokensUsed: out.Usage.TotalTokens,
		Provider:   openAIProviderName,
	}, nil
}

// createAudioPart opens the file part, carrying the caller's MIME type so
// the backend can pick the right decoder for the container format.
func createAudioPart(form *multipart.Writer, filename, mimeType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	return form.CreatePart(h)
}

func (o *OpenAIClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		req.Header.Set("OpenAI-Organization", o.organization)
	}
}

func (o *OpenAIClient) classifyResponse(resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var parsed openAIErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return classify(openAIProviderName, resp.StatusCode, parsed.Error.Code, parsed.Error.Type, trimMessage(parsed.Error.Message), nil)
	}
	return classify(openAIProviderName, resp.StatusCode, "", "", trimMessage(string(body)), nil)
}

var errInvalidRequest = errors.New("invalid provider request")

var (
	_ SpeechToText = (*OpenAIClient)(nil)
	_ TextRewriter = (*OpenAIClient)(nil)
)
