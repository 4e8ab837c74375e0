package infra

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/scribe")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.AIProvider != "openai" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TranscribeModel != "whisper-1" || cfg.RewriteModel != "gpt-4o-mini" {
		t.Fatalf("unexpected model defaults: %+v", cfg)
	}
	if cfg.MaxUploadBytes != 25*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if !cfg.EnforceBalance {
		t.Fatal("EnforceBalance should default to true")
	}
	if cfg.ReplenishPoll != time.Hour {
		t.Fatalf("ReplenishPoll = %v", cfg.ReplenishPoll)
	}
}

func TestLoadConfigRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{name: "database_url", unset: "DATABASE_URL"},
		{name: "jwt_secret", unset: "JWT_SECRET"},
		{name: "openai_api_key", unset: "OPENAI_API_KEY"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.unset, "")

			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error when %s is missing", tc.unset)
			}
		})
	}
}

func TestLoadConfigAPIKeyOptionalForOtherProviders(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("AI_PROVIDER", "none")

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENFORCE_BALANCE", "false")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.EnforceBalance {
		t.Fatal("EnforceBalance should be false")
	}
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.test" || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}
