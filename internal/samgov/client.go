package samgov

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pretorin-ai/govbizops/internal/config"
	"github.com/pretorin-ai/govbizops/internal/model"
)

const (
	// dateFormat is the MM/DD/YYYY format the search API expects for
	// postedFrom/postedTo.
	dateFormat = "01/02/2006"

	// maxErrorBody limits how much of an error response body is read for
	// diagnostics.
	maxErrorBody = 16 * 1024

	// maxResponseBody limits the response body size. A full 1000-record
	// page stays well under this.
	maxResponseBody = 64 * 1024 * 1024
)

// SearchResponse is one page of search results as returned by the API.
type SearchResponse struct {
	// TotalRecords is the total number of records matching the query
	// across all pages.
	TotalRecords int `json:"totalRecords"`

	// Opportunities is the page of records.
	Opportunities []model.Opportunity `json:"opportunitiesData"`
}

// Client is a rate-limited client for the SAM.gov opportunity search API.
//
// Design decision: We take the *http.Client from the caller rather than
// constructing one internally, matching how the rest of the codebase
// builds HTTP components: transport configuration stays in one place and
// tests can point the client at an httptest server.
type Client struct {
	// client performs the HTTP requests.
	client *http.Client

	// baseURL is the search endpoint.
	baseURL string

	// apiKey is sent in the X-Api-Key header on every request.
	apiKey string

	// userAgent is the User-Agent header for all requests.
	userAgent string

	// pageSize is the pagination limit parameter.
	pageSize int

	// delay is the fixed wait inserted after every page fetch.
	delay time.Duration

	// maxFilterValues is the compliance ceiling on filter values per call.
	maxFilterValues int

	// maxWindow is the compliance ceiling on window width.
	maxWindow time.Duration

	// protocolMaxWindow is the window maximum enforced by the API itself.
	protocolMaxWindow time.Duration

	// quota tracks daily call usage.
	quota *Quota

	// logger is used for request/diagnostic logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the search endpoint. Used for the alpha environment
// and for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithPageSize sets the pagination page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithDelay sets the fixed post-call delay. Zero disables the delay;
// only tests should do that.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxFilterValues sets the filter-value ceiling.
func WithMaxFilterValues(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxFilterValues = n
		}
	}
}

// WithMaxWindowDays sets the compliance window ceiling in days.
func WithMaxWindowDays(days int) Option {
	return func(c *Client) {
		if days > 0 {
			c.maxWindow = time.Duration(days) * 24 * time.Hour
		}
	}
}

// WithQuota sets the daily call quota tracker.
func WithQuota(q *Quota) Option {
	return func(c *Client) {
		c.quota = q
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a search client using the given HTTP client and API key.
func NewClient(httpClient *http.Client, apiKey string, opts ...Option) *Client {
	c := &Client{
		client:            httpClient,
		baseURL:           config.DefaultBaseURL,
		apiKey:            apiKey,
		userAgent:         config.DefaultUserAgent,
		pageSize:          config.DefaultPageSize,
		delay:             config.DefaultRequestDelay,
		maxFilterValues:   config.DefaultMaxFilterValues,
		maxWindow:         config.DefaultMaxWindowDays * 24 * time.Hour,
		protocolMaxWindow: config.ProtocolMaxWindowDays * 24 * time.Hour,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.quota == nil {
		c.quota = NewQuota(config.DefaultMaxDailyCalls)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Quota returns the client's daily quota tracker.
func (c *Client) Quota() *Quota {
	return c.quota
}

// checkPreconditions enforces the compliance ceilings. Every check runs
// before any network I/O; the quota is acquired last so that a rejected
// request never consumes quota.
func (c *Client) checkPreconditions(window model.Window, codes []string) error {
	if len(codes) > c.maxFilterValues {
		return fmt.Errorf("%w: %d values (ceiling %d)", ErrTooManyFilterValues, len(codes), c.maxFilterValues)
	}
	if window.To.Before(window.From) {
		return ErrInvalidWindow
	}
	width := window.Width()
	if width > c.protocolMaxWindow {
		return fmt.Errorf("%w: window spans %s", ErrWindowExceedsProtocolMax, width)
	}
	if width > c.maxWindow {
		return fmt.Errorf("%w: window spans %s (ceiling %s)", ErrWindowTooWide, width, c.maxWindow)
	}
	return c.quota.Acquire()
}

// Search fetches a single page of results at the given offset.
// Compliance preconditions are checked before any network call; each
// failure is a distinct sentinel error. A non-2xx response surfaces the
// response body in both the log and the returned error.
func (c *Client) Search(ctx context.Context, window model.Window, codes []string, offset int) (*SearchResponse, error) {
	if err := c.checkPreconditions(window, codes); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}

	q := url.Values{}
	q.Set("postedFrom", window.From.Format(dateFormat))
	q.Set("postedTo", window.To.Format(dateFormat))
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	if len(codes) > 0 {
		q.Set("ncode", strings.Join(codes, ","))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("search request",
		"postedFrom", window.From.Format(dateFormat),
		"postedTo", window.To.Format(dateFormat),
		"codes", strings.Join(codes, ","),
		"offset", offset,
		"limit", c.pageSize,
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort diagnostics
		c.logger.Error("search returned error status",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	c.logger.Debug("search response",
		"totalRecords", sr.TotalRecords,
		"returned", len(sr.Opportunities),
	)

	return &sr, nil
}

// pageState tracks the pagination state machine in FetchAll.
type pageState int

const (
	// stateFetching means more pages may remain.
	stateFetching pageState = iota

	// stateExhausted means the last page was reached: the response was
	// empty or the next offset passes the reported total.
	stateExhausted

	// stateAborted means a transport failure ended pagination early.
	// Aborted is a valid terminal state: the accumulated partial results
	// are returned and the next scheduled cycle retries the window.
	stateAborted
)

// String returns the state name for logging.
func (s pageState) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateExhausted:
		return "exhausted"
	case stateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// FetchAll fetches every page of results for the window and filter values.
//
// Pages are requested at a fixed page size, advancing the offset until a
// page comes back empty or the offset reaches the reported total. The
// fixed delay runs after every page fetch.
//
// Transport failures mid-pagination are logged and end the loop in the
// Aborted state, returning the records accumulated so far with a nil
// error. Compliance violations and context cancellation are returned to
// the caller (with any partial results).
func (c *Client) FetchAll(ctx context.Context, window model.Window, codes []string) ([]model.Opportunity, error) {
	var all []model.Opportunity
	offset := 0
	state := stateFetching

	for state == stateFetching {
		resp, err := c.Search(ctx, window, codes, offset)
		if err != nil {
			if IsComplianceViolation(err) {
				return all, err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return all, err
			}
			c.logger.Warn("page fetch failed, returning partial results",
				"offset", offset,
				"accumulated", len(all),
				"error", err,
			)
			state = stateAborted
			break
		}

		if len(resp.Opportunities) == 0 {
			state = stateExhausted
			break
		}

		all = append(all, resp.Opportunities...)
		offset += c.pageSize
		if offset >= resp.TotalRecords {
			state = stateExhausted
		}

		// Fixed post-call delay, even after the final page: the caller
		// typically issues another query series right after this one.
		if err := c.wait(ctx); err != nil {
			return all, err
		}
	}

	c.logger.Debug("pagination finished",
		"state", state.String(),
		"records", len(all),
	)

	return all, nil
}

// wait sleeps for the configured delay, honoring cancellation.
func (c *Client) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
		return nil
	}
}
