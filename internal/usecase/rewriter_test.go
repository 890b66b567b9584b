package usecase

import (
	"context"
	"strings"
	"testing"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/logging"
)

type fakeGenerator struct {
	calls  int
	prompt string
	reply  string
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.prompt = prompt
	return g.reply, g.err
}

func TestRewriterRejectsEmptyMarkdown(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   ", "\n\t\n"} {
		gen := &fakeGenerator{reply: "<p>x</p>"}
		r := NewRewriter(gen, RewriterOptions{}, logging.Discard())

		_, err := r.Rewrite(context.Background(), input)
		if !domain.IsKind(err, domain.KindValidation) {
			t.Fatalf("input %q: expected validation error, got %v", input, err)
		}
		if gen.calls != 0 {
			t.Fatalf("input %q: backend must not be called", input)
		}
	}
}

func TestRewriterBuildsPromptAndReturnsHTML(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "\n<h1>Onboarding</h1>\n<h2>First day</h2><p>Welcome.</p>\n"}
	r := NewRewriter(gen, RewriterOptions{}, logging.Discard())

	g, err := r.Rewrite(context.Background(), "# Onboarding\n\n## First day\nWelcome.")
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one backend call, got %d", gen.calls)
	}
	if !strings.Contains(gen.prompt, "## First day") {
		t.Fatalf("prompt does not embed the markdown: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "Do NOT include <html>, <head>, or <body>") {
		t.Fatalf("prompt misses the fragment rule")
	}
	if g.HTML != "<h1>Onboarding</h1>\n<h2>First day</h2><p>Welcome.</p>" {
		t.Fatalf("unexpected html: %q", g.HTML)
	}
	if g.Title != "Onboarding" || len(g.Outline) != 2 {
		t.Fatalf("unexpected title/outline: %q %v", g.Title, g.Outline)
	}
}

func TestRewriterKeepsRawOutputByDefault(t *testing.T) {
	t.Parallel()

	raw := `<h1>T</h1><script>alert(1)</script>`
	r := NewRewriter(&fakeGenerator{reply: raw}, RewriterOptions{}, logging.Discard())
	g, err := r.Rewrite(context.Background(), "# T")
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if g.HTML != raw {
		t.Fatalf("expected raw output, got %q", g.HTML)
	}
}

func TestRewriterSanitizesWhenEnabled(t *testing.T) {
	t.Parallel()

	raw := `<html><body><h1 onclick="x()">T</h1><script>alert(1)</script></body></html>`
	r := NewRewriter(&fakeGenerator{reply: raw}, RewriterOptions{Sanitize: true}, logging.Discard())
	g, err := r.Rewrite(context.Background(), "# T")
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if g.HTML != "<h1>T</h1>" {
		t.Fatalf("unexpected sanitized html: %q", g.HTML)
	}
}

func TestRewriterWrapsBackendErrors(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: domain.TransportError("generate text", 429, nil)}
	r := NewRewriter(gen, RewriterOptions{}, logging.Discard())
	_, err := r.Rewrite(context.Background(), "# T")
	if !domain.IsKind(err, domain.KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
