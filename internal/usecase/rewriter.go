package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/guide"
	"GuideBuilder/internal/ports"
)

const rewritePrompt = `
You are an editor that rewrites internal documentation into a clean HTML "guide".

Input:
- Markdown text from an ingested document.
- It may contain headings, bullet points, and paragraphs.

Your job:
- Produce semantic HTML suitable for rendering in a handbook:
  - Use <h1>, <h2>, <h3> for headings.
  - Use <p> for paragraphs.
  - Use <ul>/<ol> with <li> for lists.
  - Use <strong>, <em>, <code> where helpful.
- Improve clarity and structure, but keep the original meaning.
- Do NOT include <html>, <head>, or <body>. Output only the inner content fragment.
- Do NOT explain what you are doing. Output only HTML.

Markdown to rewrite:
--------------------
%s
`

// RewriterOptions tunes post-processing of generated HTML.
type RewriterOptions struct {
	Sanitize bool
}

// Rewriter turns delivered Markdown into an HTML guide fragment.
type Rewriter struct {
	generator ports.TextGenerator
	opts      RewriterOptions
	logger    *slog.Logger
}

var _ ports.GuideRewriter = (*Rewriter)(nil)

// NewRewriter wires a text generator.
func NewRewriter(generator ports.TextGenerator, opts RewriterOptions, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{generator: generator, opts: opts, logger: logger}
}

// BuildPrompt renders the fixed instruction prompt around markdown.
func BuildPrompt(markdown string) string {
	return fmt.Sprintf(rewritePrompt, markdown)
}

// Rewrite validates markdown, calls the model once and returns the generated fragment.
func (r *Rewriter) Rewrite(ctx context.Context, markdown string) (domain.Guide, error) {
	if strings.TrimSpace(markdown) == "" {
		return domain.Guide{}, domain.ValidationError("rewrite guide", "Missing or empty 'markdown' field in body.")
	}
	if r.generator == nil {
		return domain.Guide{}, fmt.Errorf("rewrite guide: text generator not configured")
	}

	text, err := r.generator.Generate(ctx, BuildPrompt(markdown))
	if err != nil {
		return domain.Guide{}, fmt.Errorf("rewrite guide: %w", err)
	}

	html := strings.TrimSpace(text)
	if r.opts.Sanitize {
		html = guide.Sanitize(html)
	}

	out := domain.Guide{Markdown: markdown, HTML: html}
	report, err := guide.Inspect(html)
	if err != nil {
		r.logger.Warn("inspect guide", "error", err)
		return out, nil
	}
	out.Title = report.Title
	out.Outline = report.Outline
	if len(report.ShellTags) > 0 {
		r.logger.Warn("generated guide contains document shell tags", "tags", report.ShellTags)
	}
	return out, nil
}
