package client

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

	"go.uber.org/zap"

	v1 "github.com/godispatch/core/api/v1"
	serviceErrs "github.com/godispatch/core/pkg/errors"
)

// Client talks to the admin API of a running dispatcher.
type Client struct {
	baseURL    string
	jwt        string
	httpClient *http.Client
}

func NewClient(baseURL string, jwt string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid dispatcher url %q", baseURL)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/api/v1",
		jwt:        jwt,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Stats returns the dispatcher statistics
// GET /api/v1/stats
func (c *Client) Stats(ctx context.Context) (*v1.Stats, error) {
	var stats v1.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, http.StatusOK, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListFailures returns a page of the failure journal
// GET /api/v1/failures
func (c *Client) ListFailures(ctx context.Context, params v1.GetFailuresParams) (*v1.FailureListResponse, error) {
	q := url.Values{}
	if params.Cancelled != nil {
		q.Set("cancelled", strconv.FormatBool(*params.Cancelled))
	}
	if params.Since != nil {
		q.Set("since", params.Since.Format(time.RFC3339))
	}
	if params.Limit != nil {
		q.Set("limit", strconv.Itoa(*params.Limit))
	}
	if params.Offset != nil {
		q.Set("offset", strconv.Itoa(*params.Offset))
	}

	path := "/failures"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp v1.FailureListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetFailure returns one journaled failure
// GET /api/v1/failures/{id}
func (c *Client) GetFailure(ctx context.Context, id string) (*v1.Failure, error) {
	var f v1.Failure
	err := c.do(ctx, http.MethodGet, "/failures/"+url.PathEscape(id), nil, http.StatusOK, &f)
	if serviceErrs.IsResourceNotFoundError(err) {
		return nil, serviceErrs.NewFailureNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Probe posts a synthetic work item
// POST /api/v1/probe
func (c *Client) Probe(ctx context.Context, req v1.ProbeRequest) error {
	return c.do(ctx, http.MethodPost, "/probe", req, http.StatusAccepted, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, expected int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.jwt != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.jwt))
	}

	zap.S().Named("client").Debugw("admin API request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case expected:
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusUnauthorized:
		return serviceErrs.NewUnauthorizedError()
	case http.StatusNotFound:
		return serviceErrs.NewResourceNotFoundError("route", path)
	default:
		var e v1.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, e.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
}
