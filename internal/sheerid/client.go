// Package sheerid talks to the SheerID verification REST API: a typed
// status client and a bounded status poller.
package sheerid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production SheerID endpoint.
const DefaultBaseURL = "https://my.sheerid.com"

// Step values reported by the remote endpoint. Anything else is treated as
// not-yet-terminal.
const (
	StepSuccess = "success"
	StepPending = "pending"
	StepError   = "error"
)

// Status is the parsed state of a remote verification. Raw keeps the
// untouched response body for the attempt log.
type Status struct {
	CurrentStep string
	RewardCode  string
	RedirectURL string
	ErrorIDs    []string
	Raw         string
}

// Terminal reports whether the remote review has finished.
func (s *Status) Terminal() bool {
	return s.CurrentStep == StepSuccess || s.CurrentStep == StepError
}

type statusResponse struct {
	CurrentStep string   `json:"currentStep"`
	RewardCode  string   `json:"rewardCode"`
	RedirectURL string   `json:"redirectUrl"`
	ErrorIDs    []string `json:"errorIds"`
	RewardData  struct {
		RewardCode string `json:"rewardCode"`
	} `json:"rewardData"`
}

// Client queries the SheerID verification status endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a status client against baseURL (DefaultBaseURL in
// production, an httptest server in tests).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// VerificationStatus issues a single GET /rest/v2/verification/{id} and
// parses it once at the boundary. Non-200 responses are errors; during
// polling the caller treats them as transient.
func (c *Client) VerificationStatus(ctx context.Context, verificationID string) (*Status, error) {
	url := fmt.Sprintf("%s/rest/v2/verification/%s", c.baseURL, verificationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query verification status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read status response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var parsed statusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse status response: %w", err)
	}

	rewardCode := parsed.RewardCode
	if rewardCode == "" {
		rewardCode = parsed.RewardData.RewardCode
	}

	return &Status{
		CurrentStep: parsed.CurrentStep,
		RewardCode:  rewardCode,
		RedirectURL: parsed.RedirectURL,
		ErrorIDs:    parsed.ErrorIDs,
		Raw:         string(body),
	}, nil
}
