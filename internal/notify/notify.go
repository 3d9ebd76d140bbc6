// Package notify announces newly collected opportunities to a webhook.
// The notifier is an outbound boundary: it consumes the per-cycle delta
// and its failures never affect the collection pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pretorin-ai/govbizops/internal/model"
)

// maxNoticesPerMessage bounds how many opportunities one message lists;
// the rest are summarized as a count.
const maxNoticesPerMessage = 20

// Notifier posts cycle announcements to a Slack-compatible webhook.
// An empty webhook URL disables the notifier entirely.
type Notifier struct {
	// client performs the HTTP requests.
	client *http.Client

	// webhookURL is the incoming-webhook endpoint. Empty disables.
	webhookURL string

	// logger is used for diagnostics.
	logger *slog.Logger
}

// NewNotifier creates a Notifier posting to webhookURL.
func NewNotifier(client *http.Client, webhookURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		client:     client,
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// payload is the webhook message body.
type payload struct {
	Text string `json:"text"`
}

// Notify announces the cycle outcome and its newly accepted records.
// Cycles that accepted nothing are not announced. A disabled notifier
// reports success without doing anything.
func (n *Notifier) Notify(ctx context.Context, stats model.CycleStats, newRecords []model.Opportunity) error {
	if !n.Enabled() {
		return nil
	}
	if len(newRecords) == 0 {
		n.logger.Debug("nothing newly accepted, skipping notification", "cycleId", stats.CycleID)
		return nil
	}

	body, err := json.Marshal(payload{Text: formatMessage(stats, newRecords)})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("notification sent", "cycleId", stats.CycleID, "records", len(newRecords))
	return nil
}

// formatMessage renders the announcement text.
func formatMessage(stats model.CycleStats, newRecords []model.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %d new contract opportunities collected (%s – %s)\n",
		len(newRecords),
		stats.Window.From.Format("2006-01-02"),
		stats.Window.To.Format("2006-01-02"),
	)

	shown := newRecords
	if len(shown) > maxNoticesPerMessage {
		shown = shown[:maxNoticesPerMessage]
	}
	for _, op := range shown {
		title := op.Title
		if title == "" {
			title = op.NoticeID
		}
		if op.UILink != "" {
			fmt.Fprintf(&b, "• <%s|%s>\n", op.UILink, title)
		} else {
			fmt.Fprintf(&b, "• %s\n", title)
		}
	}
	if rest := len(newRecords) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "…and %d more\n", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}
