package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(dotenvPathEnv, filepath.Join(t.TempDir(), "missing.env"))
	for _, key := range []string{portEnv, useRemoteEnv, ingestionURLEnv, ingestionTokenEnv, openAIModelEnv, pollIntervalEnv, sanitizeEnv} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Server.Addr != ":3000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Ingestion.UseRemote {
		t.Fatalf("mock ingestion should be the default")
	}
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected model: %s", cfg.OpenAI.Model)
	}
	if cfg.Poll.Interval != 2*time.Second || cfg.Poll.MaxWait != 0 {
		t.Fatalf("unexpected poll config: %+v", cfg.Poll)
	}
	if cfg.Rewrite.Sanitize {
		t.Fatalf("sanitizing should be opt-in")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.yaml")
	yamlBody := `
server:
  addr: ":8080"
poll:
  interval: 500ms
  maxWait: 2m
mock:
  markdownUrl: https://example.com/other.md
rewrite:
  sanitize: true
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("OPENAI_MODEL=gpt-test\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(dotenvPathEnv, envPath)
	t.Setenv(openAIModelEnv, "")
	os.Unsetenv(openAIModelEnv)
	t.Setenv(portEnv, "4000")
	t.Setenv(useRemoteEnv, "true")
	t.Setenv(ingestionURLEnv, "https://ingest.example.com")
	t.Setenv(ingestionTokenEnv, "tok")
	t.Setenv(pollIntervalEnv, "")
	t.Setenv(sanitizeEnv, "")

	cfg := Load()
	if cfg.Server.Addr != ":4000" {
		t.Fatalf("PORT should override file addr, got %s", cfg.Server.Addr)
	}
	if cfg.Poll.Interval != 500*time.Millisecond || cfg.Poll.MaxWait != 2*time.Minute {
		t.Fatalf("unexpected poll config: %+v", cfg.Poll)
	}
	if cfg.Mock.MarkdownURL != "https://example.com/other.md" {
		t.Fatalf("unexpected mock url: %s", cfg.Mock.MarkdownURL)
	}
	if !cfg.Rewrite.Sanitize {
		t.Fatalf("sanitize should come from file")
	}
	if !cfg.Ingestion.UseRemote || cfg.Ingestion.BaseURL != "https://ingest.example.com" {
		t.Fatalf("unexpected ingestion config: %+v", cfg.Ingestion)
	}
	if cfg.OpenAI.Model != "gpt-test" {
		t.Fatalf("model should come from .env, got %s", cfg.OpenAI.Model)
	}
	if cfg.Mock.QueuedFor != 2*time.Second {
		t.Fatalf("unset file fields must keep defaults")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Ingestion.UseRemote = true
	cfg.Poll.Interval = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{ingestionURLEnv, ingestionTokenEnv, "poll interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}
