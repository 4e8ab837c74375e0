package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// DefaultStyleGuidance is applied when the caller supplies no guidance. It
// is reported back verbatim as the prompt used.
const DefaultStyleGuidance = "Improve readability while keeping the speaker's voice."

const rewriteSystemPrompt = "You are a careful transcript editor that only responds with valid JSON."

// rewriteRules are appended to every rewrite instruction regardless of the
// caller's guidance.
const rewriteRules = "Rules: fix grammar and spelling; restructure into paragraphs or bullet points where it reads better; preserve the speaker's tone and meaning; never add or remove information."

type correctedPayload struct {
	Corrected string `json:"corrected"`
}

func buildRewritePayload(text, guidance string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Rewrite the transcript below. Style guidance: %s %s ", guidance, rewriteRules)
	sb.WriteString(`Respond strictly with JSON matching this schema: {"corrected":string}. `)
	fmt.Fprintf(sb, "Transcript: %q", text)
	return sb.String()
}

// parseCorrectedPayload extracts the corrected text from a model response.
// A response without a usable corrected field is an error.
func parseCorrectedPayload(raw string) (string, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return "", errors.New("empty payload")
	}
	var decoded correctedPayload
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return "", err
	}
	corrected := strings.TrimSpace(decoded.Corrected)
	if corrected == "" {
		return "", errors.New("corrected field missing or empty")
	}
	return corrected, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// languageAliases maps spelled-out names the transcription endpoint returns
// to tags language.Parse understands.
var languageAliases = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"indonesian": "id",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"turkish":    "tr",
}

// normalizeLanguage canonicalizes the provider-reported language to a BCP-47
// tag. Unrecognized values pass through lowercased rather than being dropped.
func normalizeLanguage(lang string) string {
	trimmed := strings.ToLower(strings.TrimSpace(lang))
	if trimmed == "" {
		return ""
	}
	if alias, ok := languageAliases[trimmed]; ok {
		trimmed = alias
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	return tag.String()
}
