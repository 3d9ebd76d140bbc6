// Package crm pushes newly collected opportunities into the downstream
// CRM. Like the notifier, this is an outbound boundary: the pipeline
// hands it the per-cycle delta and moves on regardless of the outcome.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pretorin-ai/govbizops/internal/model"
)

// maxResponseBody bounds CRM response reads.
const maxResponseBody = 1024 * 1024

// ErrNotConfigured is returned when the client has no base URL.
var ErrNotConfigured = errors.New("CRM base URL not configured")

// Client talks to the CRM import API using bearer-token authentication.
type Client struct {
	// client performs the HTTP requests.
	client *http.Client

	// baseURL is the CRM API root. Empty disables the client.
	baseURL string

	// apiKey is the bearer token.
	apiKey string

	// logger is used for diagnostics.
	logger *slog.Logger
}

// NewClient creates a CRM client for the given API root.
func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client:  httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Enabled reports whether a CRM endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// do issues an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create CRM request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CRM request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read CRM response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("CRM returned status %d for %s %s: %s",
			resp.StatusCode, method, path, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// Account identifies the authenticated CRM user.
type Account struct {
	// ID is the account identifier.
	ID string `json:"id"`

	// Email is the account email address.
	Email string `json:"email"`
}

// Verify checks the API key against the CRM and returns the account it
// belongs to.
func (c *Client) Verify(ctx context.Context) (*Account, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	data, err := c.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("failed to decode CRM account: %w", err)
	}
	return &acct, nil
}

// importRequest is the import endpoint's request body.
type importRequest struct {
	Opportunities      []model.Opportunity `json:"opportunities"`
	AutoCreateContacts bool                `json:"auto_create_contacts"`
}

// ImportResult is the CRM's accounting of an import batch.
type ImportResult struct {
	// Imported is how many opportunities the CRM created.
	Imported int `json:"imported"`

	// Skipped is how many the CRM already knew.
	Skipped int `json:"skipped"`
}

// Import pushes a batch of opportunities to the CRM. An empty batch is a
// no-op. autoCreateContacts asks the CRM to create contact records from
// the opportunities' point-of-contact data.
func (c *Client) Import(ctx context.Context, records []model.Opportunity, autoCreateContacts bool) (*ImportResult, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if len(records) == 0 {
		return &ImportResult{}, nil
	}

	body, err := json.Marshal(importRequest{
		Opportunities:      records,
		AutoCreateContacts: autoCreateContacts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode import batch: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/contracts/import/samgov", body)
	if err != nil {
		return nil, err
	}

	var result ImportResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode import result: %w", err)
	}

	c.logger.Debug("CRM import finished",
		"sent", len(records),
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return &result, nil
}
