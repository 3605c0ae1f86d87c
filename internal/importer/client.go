// Package importer uploads assembled records to the import API.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/format"
	"github.com/JonMunkholm/dipsw/internal/logging"
	"github.com/google/uuid"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Result is the server's answer to a successful upload.
type Result struct {
	Success  bool   `json:"success"`
	Model    string `json:"model"`
	Inserted int64  `json:"inserted"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("import API returned %d: %s", e.StatusCode, e.Body)
}

// Client posts records to an import endpoint.
type Client struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

// New returns a Client for url with the given request timeout.
func New(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		URL:    url,
		APIKey: apiKey,
		HTTP:   &http.Client{Timeout: timeout},
	}
}

// Upload sends records as one JSON array. Each call carries a fresh
// X-Request-Id so server logs can be matched to the upload.
func (c *Client) Upload(ctx context.Context, records []dipsw.Record) (Result, error) {
	var body bytes.Buffer
	if err := format.WriteJSON(&body, records, false); err != nil {
		return Result{}, fmt.Errorf("encode records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	logger := logging.WithFields(ctx, "request_id", requestID, "url", c.URL)
	logger.Debug("uploading records", "records", len(records))

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("post %s: %w", c.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Result{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	logger.Info("upload accepted", "model", result.Model, "inserted", result.Inserted)
	return result, nil
}
