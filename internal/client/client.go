// Package client talks to a running mealminder API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mealminder/internal/apperr"
	"mealminder/internal/recipe"
	"mealminder/models"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 15 * time.Second
)

// Config describes how the API client should be initialised.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin wrapper around the recipe endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for the API at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateRecipe posts the draft once. Failures are returned, never retried.
func (c *Client) CreateRecipe(ctx context.Context, draft recipe.Draft) (models.Recipe, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return models.Recipe{}, fmt.Errorf("client: encode recipe: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recipes", bytes.NewReader(body))
	if err != nil {
		return models.Recipe{}, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Recipe{}, fmt.Errorf("client: post recipe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var envelope apperr.Error
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Message != "" {
			return models.Recipe{}, fmt.Errorf("client: api returned status %s: %w", resp.Status, &envelope)
		}
		return models.Recipe{}, fmt.Errorf("client: api returned status %s", resp.Status)
	}

	var created models.Recipe
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return models.Recipe{}, fmt.Errorf("client: decode response: %w", err)
	}
	return created, nil
}
