// Package phizone is a minimal typed client for the PhiZone REST API
// (users, personal bests, records, charts). All endpoints are unauthenticated
// GETs returning a {"data": ...} envelope.
package phizone

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/phizone-bot/telemetry"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.phizone.cn"

// Client issues requests against the PhiZone API. The zero value is usable;
// BaseURL and HTTPClient exist so tests can point at a mock server and so the
// binary can apply a bounded timeout.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client against the given base URL (empty means production)
// with the given request timeout applied to the underlying HTTP client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

// get issues a GET against path, enforces the 200/404/other status policy, and
// decodes the data envelope into out. No retries and no caching: every call
// hits the network (the upstream contract for this bot).
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	ctx, span := telemetry.StartSpan(ctx, "phizone-client", "GET "+path,
		attribute.String("phizone.path", path))
	defer span.End()

	u := c.base() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	start := time.Now()
	resp, err := c.http().Do(req)
	telemetry.ObserveAPIRequest(path, time.Since(start))
	if err != nil {
		telemetry.CountAPIError(path)
		telemetry.RecordError(span, err)
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		telemetry.CountAPIError(path)
		serr := &StatusError{StatusCode: resp.StatusCode, Path: path}
		telemetry.RecordError(span, serr)
		return serr
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("phizone: decode %s: %w", path, err)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("phizone: decode %s data: %w", path, err)
		}
	}
	telemetry.SetSpanSuccess(span)
	return nil
}

// GetUser fetches a user's profile by external id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := c.get(ctx, "/users/"+url.PathEscape(userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetPersonalBests fetches a user's phi1 + best19 collection.
func (c *Client) GetPersonalBests(ctx context.Context, userID string) (*PersonalBests, error) {
	var pb PersonalBests
	if err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/personalBests", nil, &pb); err != nil {
		return nil, err
	}
	return &pb, nil
}

// GetRecentRecords lists a user's play records, newest first when desc is set.
func (c *Client) GetRecentRecords(ctx context.Context, userID string, page, perPage int, desc bool) ([]Record, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 1
	}
	q := url.Values{}
	q.Set("rangeOwnerId", userID)
	q.Set("Desc", strconv.FormatBool(desc))
	q.Set("Page", strconv.Itoa(page))
	q.Set("PerPage", strconv.Itoa(perPage))
	var records []Record
	if err := c.get(ctx, "/records", q, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SearchCharts runs a free-text chart search; ranking is done server-side.
func (c *Client) SearchCharts(ctx context.Context, keywords string, perPage int) ([]Chart, error) {
	if perPage <= 0 {
		perPage = 3
	}
	q := url.Values{}
	q.Set("search", keywords)
	q.Set("perPage", strconv.Itoa(perPage))
	var charts []Chart
	if err := c.get(ctx, "/charts", q, &charts); err != nil {
		return nil, err
	}
	return charts, nil
}

// GetChart fetches one chart by id.
func (c *Client) GetChart(ctx context.Context, chartID string) (*Chart, error) {
	var ch Chart
	if err := c.get(ctx, "/charts/"+url.PathEscape(chartID), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetRandomChart asks the service for a uniformly random chart.
func (c *Client) GetRandomChart(ctx context.Context) (*Chart, error) {
	var ch Chart
	if err := c.get(ctx, "/charts/random", nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}
