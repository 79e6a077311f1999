package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kelsos/sonar-gate/internal/config"
	"github.com/kelsos/sonar-gate/internal/logger"
	"github.com/kelsos/sonar-gate/internal/models"
)

var (
	// ErrNetwork marks transport failures and non-200 responses
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse marks bodies that cannot be decoded into the expected shape
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is returned when the analysis host answers with a non-200 status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrNetwork
}

// APIClient handles all HTTP communication with the analysis host
type APIClient struct {
	config     *config.Config
	httpClient *http.Client
}

// NewAPIClient creates a new API client with the given configuration
func NewAPIClient(cfg *config.Config) *APIClient {
	return &APIClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

// BuildURL constructs a full URL for the given endpoint
func (c *APIClient) BuildURL(endpoint string) string {
	return c.config.BaseURL() + endpoint
}

// Get makes a GET request and decodes the JSON body into result
func (c *APIClient) Get(endpoint string, result interface{}) error {
	body, err := c.GetRaw(endpoint)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			logger.Error("%s: Error decoding response: %v", endpoint, err)
			return fmt.Errorf("%w: error decoding response: %v", ErrMalformedResponse, err)
		}
	}

	return nil
}

// GetRaw makes a GET request and returns the undecoded body
func (c *APIClient) GetRaw(endpoint string) ([]byte, error) {
	url := c.BuildURL(endpoint)
	start := time.Now()
	logger.Debug("Starting GET request to %s", url)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// the token goes in as the username with an empty password
	if c.config.Token != "" {
		req.SetBasicAuth(c.config.Token, "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		logger.Error("Request failed after (%s) %v: %v", url, elapsed, err)
		return nil, fmt.Errorf("%w: request failed: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	logger.Debug("Request to %s completed in %v with status %d", url, elapsed, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		message := describeErrorBody(body)
		logger.Error("%s: HTTP error %d: %s", url, resp.StatusCode, message)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: message}
	}

	return body, nil
}

// describeErrorBody prefers the messages of the host's error envelope over the raw body
func describeErrorBody(body []byte) string {
	var envelope models.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Msg)
		}
		return strings.Join(messages, "; ")
	}
	return strings.TrimSpace(string(body))
}

// BuildURLWithParams properly builds a URL with query parameters
func BuildURLWithParams(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	parts := strings.SplitN(endpoint, "?", 2)
	baseURL := parts[0]

	values := url.Values{}
	if len(parts) > 1 {
		existingParams, _ := url.ParseQuery(parts[1])
		values = existingParams
	}

	for key, value := range params {
		values.Set(key, value)
	}

	if len(values) > 0 {
		return baseURL + "?" + values.Encode()
	}
	return baseURL
}
