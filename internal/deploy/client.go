// Package deploy pushes a project's current snapshot to the hosting
// provider. Thin pass-through: build the zip, upload it, relay the URL.
package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hatchwork/backend/internal/export"
	"github.com/hatchwork/backend/internal/models"
)

// Deployment is the provider's answer to a successful upload.
type Deployment struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Provider uploads a snapshot and returns the live deployment.
type Provider interface {
	Deploy(ctx context.Context, siteName string, state models.AppState) (*Deployment, error)
}

// Client talks to the hosting provider's deploy API: one POST with the
// site zip as the body.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

var _ Provider = (*Client)(nil)

func (c *Client) Deploy(ctx context.Context, siteName string, state models.AppState) (*Deployment, error) {
	archive, err := export.Archive(state)
	if err != nil {
		return nil, fmt.Errorf("build site archive: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/sites", bytes.NewReader(archive))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/zip")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Site-Name", siteName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload to deploy provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("deploy provider returned status %d", resp.StatusCode)
	}
	var d Deployment
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode deploy response: %w", err)
	}
	return &d, nil
}
