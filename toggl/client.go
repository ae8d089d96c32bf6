/*
Package toggl fetches time entries from the Toggl Track API.

PURPOSE:
  Pulls the raw material for the report: every time entry between the first
  scheduled period and now, with client and project names resolved through
  the account's project list. The package stops at name-resolved intervals;
  turning them into per-day engine entries is convert.go's job.

API:
  Toggl Track API v9 (https://api.track.toggl.com/api/v9), basic auth with
  the account token as username and the literal string "api_token" as
  password. Transient failures (429, 5xx, transport errors) retry with
  exponential backoff; anything else fails immediately.

USAGE:
  client := toggl.NewClient(token, logger)
  entries, err := client.FetchEntries(ctx, firstPeriodStart, time.Now())
  records, warnings := toggl.Convert(entries, time.Local, knownClients)

SEE ALSO:
  - convert.go: midnight splitting and engine conversion
  - store/sqlite: local cache of fetched entries
*/
package toggl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/warp/ontrack/engine"
)

const defaultBaseURL = "https://api.track.toggl.com/api/v9"

const fetchMaxElapsed = 30 * time.Second

// Client talks to the Toggl Track API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client for the given API token. A nil logger discards
// all logging.
func NewClient(token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// SetBaseURL points the client at a different API root, for tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// FetchEntries returns every time entry from the start of from through now,
// with client and project names resolved.
func (c *Client) FetchEntries(ctx context.Context, from engine.Date, now time.Time) ([]Entry, error) {
	projects, err := c.projectIndex(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, now.Location())
	query := url.Values{
		"start_date": {start.Format(time.RFC3339)},
		"end_date":   {now.Format(time.RFC3339)},
	}

	var raw []apiTimeEntry
	if err := c.getJSON(ctx, "/me/time_entries?"+query.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("fetch time entries: %w", err)
	}
	c.logger.Debug("fetched time entries", "count", len(raw), "from", from, "to", now)

	entries := make([]Entry, 0, len(raw))
	for _, te := range raw {
		entry := Entry{
			Start:       te.Start,
			Stop:        now,
			Description: te.Description,
		}
		if te.Stop != nil {
			entry.Stop = *te.Stop
		}
		if names, ok := projects[te.ProjectID]; ok {
			entry.Client = names.client
			entry.Project = names.project
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type projectNames struct {
	client  string
	project string
}

// projectIndex maps project IDs to resolved client/project names.
func (c *Client) projectIndex(ctx context.Context) (map[int64]projectNames, error) {
	var clients []apiClient
	if err := c.getJSON(ctx, "/me/clients", &clients); err != nil {
		return nil, fmt.Errorf("fetch clients: %w", err)
	}
	clientNames := make(map[int64]string, len(clients))
	for _, cl := range clients {
		clientNames[cl.ID] = cl.Name
	}

	var projects []apiProject
	if err := c.getJSON(ctx, "/me/projects", &projects); err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	index := make(map[int64]projectNames, len(projects))
	for _, p := range projects {
		index[p.ID] = projectNames{
			client:  clientNames[p.ClientID],
			project: p.Name,
		}
	}
	c.logger.Debug("resolved project index", "clients", len(clients), "projects", len(projects))
	return index, nil
}

func newFetchBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = fetchMaxElapsed
	return bo
}

// getJSON performs an authenticated GET and decodes the response, retrying
// transient failures.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.SetBasicAuth(c.token, "api_token")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("request failed, retrying", "path", path, "error", err)
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			c.logger.Debug("retryable status", "path", path, "status", resp.StatusCode)
			return fmt.Errorf("toggl returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("toggl returned status %d: %s", resp.StatusCode, truncate(string(body), 200)))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", path, err))
		}
		return nil
	}, backoff.WithContext(newFetchBackoff(), ctx))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
