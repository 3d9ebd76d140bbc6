// Package describe resolves the detail description for collected
// opportunities. The search API returns the description as a URL to a
// separate endpoint rather than inline text; resolution is a separate,
// optional pass over already-stored records.
package describe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/pretorin-ai/govbizops/internal/model"
)

// maxDescriptionBody bounds the description response size.
const maxDescriptionBody = 4 * 1024 * 1024

// ErrNoDescriptionURL is returned when the record carries no resolvable
// description link.
var ErrNoDescriptionURL = errors.New("record has no description URL")

// Resolver fetches and cleans opportunity descriptions.
type Resolver struct {
	// client performs the HTTP requests.
	client *http.Client

	// apiKey is appended to the description URL; the description endpoint
	// authenticates by query parameter, unlike search.
	apiKey string

	// logger is used for diagnostics.
	logger *slog.Logger
}

// NewResolver creates a Resolver using the given HTTP client and API key.
func NewResolver(client *http.Client, apiKey string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client: client,
		apiKey: apiKey,
		logger: logger,
	}
}

// descriptionURL pulls the description link out of the record's
// passthrough fields.
func descriptionURL(op model.Opportunity) string {
	raw, ok := op.Extra["description"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		// Inline text, not a link; nothing to fetch.
		return ""
	}
	return s
}

// InlineDescription returns the description text when the upstream sent
// it inline instead of as a link.
func InlineDescription(op model.Opportunity) string {
	raw, ok := op.Extra["description"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return ""
	}
	return s
}

// Resolve fetches the record's description and returns it as plain text
// with HTML markup stripped. Records whose description arrived inline
// are returned without a network call.
func (r *Resolver) Resolve(ctx context.Context, op model.Opportunity) (string, error) {
	if inline := InlineDescription(op); inline != "" {
		return StripHTML(inline), nil
	}

	rawURL := descriptionURL(op)
	if rawURL == "" {
		return "", ErrNoDescriptionURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid description URL %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set("api_key", r.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create description request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("description request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("description endpoint returned status %d for notice %s", resp.StatusCode, op.NoticeID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionBody))
	if err != nil {
		return "", fmt.Errorf("failed to read description response: %w", err)
	}

	// The endpoint wraps the text in {"description": "..."} on v2 and
	// returns bare HTML on older paths; tolerate both.
	var wrapper struct {
		Description string `json:"description"`
	}
	text := string(body)
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Description != "" {
		text = wrapper.Description
	}

	return StripHTML(text), nil
}

// whitespaceRun collapses the whitespace left behind by removed markup.
var whitespaceRun = regexp.MustCompile(`[ \t]{2,}`)

// StripHTML removes HTML markup, keeping the text content. Block-level
// boundaries become newlines so paragraph structure survives. Input that
// is not HTML passes through unchanged apart from whitespace cleanup.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			out := b.String()
			out = whitespaceRun.ReplaceAllString(out, " ")
			lines := strings.Split(out, "\n")
			cleaned := make([]string, 0, len(lines))
			for _, line := range lines {
				if l := strings.TrimSpace(line); l != "" {
					cleaned = append(cleaned, l)
				}
			}
			return strings.Join(cleaned, "\n")
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "p", "br", "div", "li", "tr", "h1", "h2", "h3", "h4", "ul", "ol", "table":
				b.WriteByte('\n')
			}
		}
	}
}

// Attachments returns the attachment download links carried in the
// record's resourceLinks field.
func Attachments(op model.Opportunity) []string {
	raw, ok := op.Extra["resourceLinks"]
	if !ok {
		return nil
	}
	var links []string
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil
	}
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
