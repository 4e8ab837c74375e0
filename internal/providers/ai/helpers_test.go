package ai

import (
	"strings"
	"testing"
)

func TestParseCorrectedPayload(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: `{"corrected":"Clean text."}`, want: "Clean text."},
		{name: "fenced", raw: "```json\n{\"corrected\":\"Fenced text.\"}\n```", want: "Fenced text."},
		{name: "surrounding_prose", raw: `Here you go: {"corrected":"Embedded."}`, want: "Embedded."},
		{name: "empty", raw: "", wantErr: true},
		{name: "empty_field", raw: `{"corrected":"  "}`, wantErr: true},
		{name: "wrong_field", raw: `{"fixed":"nope"}`, wantErr: true},
		{name: "invalid_json", raw: `{"corrected":`, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseCorrectedPayload(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "english", want: "en"},
		{input: "English", want: "en"},
		{input: "en", want: "en"},
		{input: "pt-BR", want: "pt-BR"},
		{input: "indonesian", want: "id"},
		{input: "", want: ""},
		{input: "klingon-speak", want: "klingon-speak"},
	}
	for _, tc := range cases {
		if got := normalizeLanguage(tc.input); got != tc.want {
			t.Fatalf("normalizeLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestBuildRewritePayloadCarriesRulesAndText(t *testing.T) {
	payload := buildRewritePayload("some raw text", "Be formal")
	for _, want := range []string{"Be formal", "never add or remove information", `"corrected"`, "some raw text"} {
		if !strings.Contains(payload, want) {
			t.Fatalf("payload missing %q: %s", want, payload)
		}
	}
}
