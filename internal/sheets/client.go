// Package sheets fetches published Google Sheets tabs as CSV.
//
// Only publicly shared spreadsheets are supported. No credentials are sent.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/sheetsync/internal/core"
)

// DefaultBaseURL is the Google Docs origin serving CSV exports.
const DefaultBaseURL = "https://docs.google.com"

// MaxPayloadSize caps the size of one CSV export.
const MaxPayloadSize = 64 << 20

// ErrEmptyResult is returned when the export body is empty.
var ErrEmptyResult = core.ErrEmptyResult

// ErrPayloadTooLarge is returned when an export exceeds the size cap.
var ErrPayloadTooLarge = errors.New("export exceeds size limit")

// TransportError reports a network failure or a non-2xx response.
type TransportError struct {
	URL        string
	StatusCode int // 0 for network failures
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed: GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch failed: GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client downloads sheet exports.
type Client struct {
	baseURL    string
	http       *http.Client
	maxPayload int64
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the export origin, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMaxPayloadSize overrides MaxPayloadSize.
func WithMaxPayloadSize(n int64) Option {
	return func(c *Client) {
		c.maxPayload = n
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		http:       &http.Client{},
		maxPayload: MaxPayloadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.maxPayload <= 0 {
		c.maxPayload = MaxPayloadSize
	}
	return c
}

// ExportURL builds the CSV export URL for one sheet.
func ExportURL(baseURL, spreadsheetID, sheetName string) string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		strings.TrimRight(baseURL, "/"),
		url.QueryEscape(spreadsheetID),
		url.QueryEscape(sheetName),
	)
}

// FetchTable downloads a sheet and tokenizes it, header row first.
func (c *Client) FetchTable(ctx context.Context, spreadsheetID, sheetName string) ([][]string, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is empty", core.ErrInvalidInput)
	}
	if strings.TrimSpace(sheetName) == "" {
		return nil, fmt.Errorf("%w: sheet name is empty", core.ErrInvalidInput)
	}

	target := ExportURL(c.baseURL, spreadsheetID, sheetName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPayload+1))
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	if int64(len(body)) > c.maxPayload {
		return nil, &TransportError{URL: target, Err: fmt.Errorf("%w (%d bytes)", ErrPayloadTooLarge, c.maxPayload)}
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("sheet %q: %w (check public access and exact name)", sheetName, ErrEmptyResult)
	}

	rows := core.Tokenize(string(core.SanitizePayload(body)))
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheetName, ErrEmptyResult)
	}
	return rows, nil
}

var spreadsheetIDPattern = regexp.MustCompile(`spreadsheets/d/([a-zA-Z0-9_-]+)`)

// ExtractSpreadsheetID pulls the spreadsheet ID out of a sheet URL.
// Returns false when the URL does not contain one.
func ExtractSpreadsheetID(sheetURL string) (string, bool) {
	m := spreadsheetIDPattern.FindStringSubmatch(sheetURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ResolveSpreadsheetID accepts either a sheet URL or a bare ID.
func ResolveSpreadsheetID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: spreadsheet id is empty", core.ErrInvalidInput)
	}
	if id, ok := ExtractSpreadsheetID(input); ok {
		return id, nil
	}
	if strings.Contains(input, "/") {
		return "", fmt.Errorf("%w: no spreadsheet id in %q", core.ErrInvalidInput, input)
	}
	return input, nil
}
