package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dom/card-chess/internal/api/handlers"
	"github.com/dom/card-chess/internal/domain"
)

// APIClient reads the HTTP side of the server
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *APIClient) Health() (*handlers.HealthResponse, error) {
	var h handlers.HealthResponse
	if err := c.getJSON("/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *APIClient) RecentMatches(limit int) ([]domain.MatchRecord, error) {
	var records []domain.MatchRecord
	if err := c.getJSON(fmt.Sprintf("/api/v1/matches?limit=%d", limit), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// HTTP helpers

func (c *APIClient) getJSON(path string, v interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s failed (%d): %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
