// Package tui is a thin terminal dashboard over the orchestrator API: it
// polls the status endpoint and can trigger a run.
package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"giggle/types"
)

// Client is a thin HTTP client for the orchestrator API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the orchestrator at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetStatus fetches the current run status.
func (c *Client) GetStatus() (*types.StatusResponse, error) {
	resp, err := c.client.Get(c.baseURL + "/api/pipeline/status")
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var status types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// Start triggers a pipeline run. A 409 means a run is already in flight.
func (c *Client) Start() error {
	resp, err := c.client.Post(c.baseURL+"/api/pipeline/start", "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("a run is already in progress")
	}
	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
