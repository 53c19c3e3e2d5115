// Package notion reads training projects from a Notion database and writes back the
// invoiced flag once a project has been billed.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"notion2mf/internal/config"
	"notion2mf/internal/logger"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
)

// ErrMissingAPIKey is returned by NewClient when no integration token is configured.
var ErrMissingAPIKey = errors.New("notion: API key is not set")

// APIError is a non-2xx answer from the Notion API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notion: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// ClientConfig configures a Client. Empty BaseURL and Version fall back to the defaults.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	DatabaseID string
	Version    string
	Properties config.NotionProperties

	// HTTPClient is the base client; its transport gets the bearer token added.
	HTTPClient *http.Client
}

// Client talks to one Notion database.
type Client struct {
	http       *http.Client
	baseURL    string
	databaseID string
	version    string
	props      config.NotionProperties
	log        zerolog.Logger
}

// NewClient creates a Notion client authenticated with the integration token.
func NewClient(cfg ClientConfig) (*Client, error) {
	const op = "NewClient"

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingAPIKey)
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("%s: database id is not set", op)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	token := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	httpClient := &http.Client{
		Timeout:   base.Timeout,
		Transport: &oauth2.Transport{Source: token, Base: transport},
	}

	props := cfg.Properties
	if props == (config.NotionProperties{}) {
		props = config.DefaultNotionProperties()
	}

	return &Client{
		http:       httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		databaseID: cfg.DatabaseID,
		version:    version,
		props:      props,
		log:        logger.WithComponent("notion"),
	}, nil
}

// do sends a JSON request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
