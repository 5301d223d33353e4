// Package images proxies stock photo search to the image provider so
// the browser never sees the provider API key.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Photo is the trimmed-down provider result we pass to clients.
type Photo struct {
	ID           int64  `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Alt          string `json:"alt"`
	Src          Source `json:"src"`
}

// Source holds the render sizes the editor actually uses.
type Source struct {
	Original string `json:"original"`
	Large    string `json:"large"`
	Medium   string `json:"medium"`
	Small    string `json:"small"`
}

// Searcher finds stock photos matching a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, perPage int) ([]Photo, error)
}

// Client calls the provider's search endpoint with the server-held key.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

var _ Searcher = (*Client)(nil)

func (c *Client) Search(ctx context.Context, query string, perPage int) ([]Photo, error) {
	if perPage <= 0 {
		perPage = 12
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image provider returned status %d", resp.StatusCode)
	}
	var body struct {
		Photos []Photo `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode image search response: %w", err)
	}
	return body.Photos, nil
}
