package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"planboard/internal/domain"
	"planboard/pkg/errors"
	"planboard/pkg/logger"
)

// Client talks to the plan backend: loading proposal versions, advisory
// preview/validate, committing groups, releasing versions and persisting
// synthetic pairs. It holds no board state of its own.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a plan backend client.
func NewClient(baseURL, token string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log,
	}
}

// Details loads one proposal version: groups, the team directory and the
// current metrics.
func (c *Client) Details(ctx context.Context, version int) (*domain.DetailsResult, error) {
	var out domain.DetailsResult
	if err := c.getJSON(ctx, "/plans/details?version="+strconv.Itoa(version), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preview asks the backend to recompute derived metrics for a candidate
// board. Advisory only.
func (c *Client) Preview(ctx context.Context, groups []domain.GroupPayload) (*domain.PreviewResult, error) {
	var out domain.PreviewResult
	body := map[string]interface{}{"groups": groups}
	if err := c.postJSON(ctx, "/plans/preview", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the backend for structural issues in a candidate board.
// Advisory only; it never blocks further edits.
func (c *Client) Validate(ctx context.Context, groups []domain.GroupPayload) (*domain.ValidateResult, error) {
	var out domain.ValidateResult
	body := map[string]interface{}{"groups": groups}
	if err := c.postJSON(ctx, "/plans/validate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetGroups commits the board to the backend. Without force, structural
// warnings come back as a SaveResult with status "warning" and nothing is
// committed; the caller re-invokes with force after operator confirmation.
func (c *Client) SetGroups(ctx context.Context, version int, groups []domain.GroupPayload, force bool) (*domain.SaveResult, error) {
	var out domain.SaveResult
	body := map[string]interface{}{
		"version": version,
		"groups":  groups,
	}
	if force {
		body["force"] = true
	}
	if err := c.postJSON(ctx, "/plans/set_groups", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Finalize marks the version as the single released plan for its event.
func (c *Client) Finalize(ctx context.Context, version int) error {
	return c.postJSON(ctx, "/plans/finalize?version="+strconv.Itoa(version), map[string]interface{}{}, nil)
}

// Unrelease withdraws a released version.
func (c *Client) Unrelease(ctx context.Context, version int) error {
	return c.postJSON(ctx, "/plans/unrelease?version="+strconv.Itoa(version), map[string]interface{}{}, nil)
}

// Issues fetches the outstanding issues for a version. Callers doing a
// pre-release confirmation must call this fresh, never reuse a cached
// advisory display.
func (c *Client) Issues(ctx context.Context, version int) (*domain.IssuesResult, error) {
	var out domain.IssuesResult
	if err := c.getJSON(ctx, "/plans/issues?version="+strconv.Itoa(version), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFromSynthetic converts a client-side composite into a durable team.
// The backend keys the operation on the synthetic id, making retries after
// ambiguous failures idempotent.
func (c *Client) CreateFromSynthetic(ctx context.Context, eventID string, syntheticID domain.EntityID) error {
	q := url.Values{}
	q.Set("event_id", eventID)
	q.Set("synthetic_id", string(syntheticID))
	return c.postJSON(ctx, "/admin/teams/create-from-synthetic?"+q.Encode(), map[string]interface{}{}, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.NewInternalError("failed to create request", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return errors.NewInternalError("failed to marshal request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return errors.NewInternalError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewNetworkError(fmt.Sprintf("plan backend unreachable: %s %s", req.Method, req.URL.Path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkError("failed to read plan backend response", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("plan backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.NewNetworkError(fmt.Sprintf("plan backend returned status %d: %s", resp.StatusCode, msg), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"path":        req.URL.Path,
			"status_code": resp.StatusCode,
		}).Error("Failed to parse plan backend response")
		return errors.NewNetworkError("failed to parse plan backend response", err)
	}
	return nil
}
