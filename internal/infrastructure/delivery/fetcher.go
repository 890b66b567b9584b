package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

const (
	defaultMaxBytes = 10 << 20
	errorBodyLimit  = 512
)

// Fetcher downloads delivered markdown from signed URLs.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

var _ ports.ArtifactFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 30s timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, maxBytes: defaultMaxBytes}
}

// FetchMarkdown returns the body of the artifact at rawURL as text.
func (f *Fetcher) FetchMarkdown(ctx context.Context, rawURL string) (string, error) {
	const op = "fetch markdown"
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", domain.ValidationError(op, fmt.Sprintf("invalid delivery url %q", rawURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", domain.TransportError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		var cause error
		if text := strings.TrimSpace(string(snippet)); text != "" {
			cause = errors.New(text)
		}
		return "", domain.TransportError(op, resp.StatusCode, cause)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", domain.TransportError(op, 0, err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", domain.ProtocolError(op, fmt.Sprintf("artifact exceeds %d bytes", f.maxBytes), nil)
	}
	return string(body), nil
}
