package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/razour08/tgbot-verify/internal/models"
	"github.com/razour08/tgbot-verify/internal/sheerid"
)

// SheerIDVerifier completes a SheerID program verification: it fills the
// personal-info step with a generated applicant and reports the resulting
// step as a tagged outcome. What the service does with the submission is its
// own business; success/pending/rejection are taken as given.
type SheerIDVerifier struct {
	service    models.ServiceType
	step       string
	httpClient *http.Client
	baseURL    string
}

// NewSheerIDVerifier creates the verifier for one program. step is the
// SheerID collect step the program expects (student or teacher flavored).
func NewSheerIDVerifier(service models.ServiceType, step, baseURL string) *SheerIDVerifier {
	if baseURL == "" {
		baseURL = sheerid.DefaultBaseURL
	}
	return &SheerIDVerifier{
		service: service,
		step:    step,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: baseURL,
	}
}

// Service returns the service type this verifier handles.
func (v *SheerIDVerifier) Service() models.ServiceType {
	return v.service
}

// ParseVerificationID validates the pasted link shape. Pure and synchronous.
func (v *SheerIDVerifier) ParseVerificationID(rawURL string) string {
	return ExtractVerificationID(strings.TrimSpace(rawURL))
}

type stepResponse struct {
	CurrentStep string   `json:"currentStep"`
	RewardCode  string   `json:"rewardCode"`
	RedirectURL string   `json:"redirectUrl"`
	ErrorIDs    []string `json:"errorIds"`
	RewardData  struct {
		RewardCode string `json:"rewardCode"`
	} `json:"rewardData"`
}

// Verify submits the applicant data for the verification and maps the
// remote step to a tagged Result. Callers run this under the concurrency
// limiter; it never panics on expected rejections.
func (v *SheerIDVerifier) Verify(ctx context.Context, verificationID string) (*Result, error) {
	applicant, err := GenerateApplicant()
	if err != nil {
		return nil, fmt.Errorf("generate applicant: %w", err)
	}

	payload := map[string]interface{}{
		"firstName": applicant.FirstName,
		"lastName":  applicant.LastName,
		"email":     applicant.Email,
		"birthDate": applicant.BirthDate,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal step payload: %w", err)
	}

	url := fmt.Sprintf("%s/rest/v2/verification/%s/step/%s", v.baseURL, verificationID, v.step)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build step request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit verification step: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read step response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("step endpoint returned %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed stepResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse step response: %w", err)
	}

	rewardCode := parsed.RewardCode
	if rewardCode == "" {
		rewardCode = parsed.RewardData.RewardCode
	}

	result := &Result{
		VerificationID: verificationID,
		RewardCode:     rewardCode,
		RedirectURL:    parsed.RedirectURL,
		Raw:            string(respBody),
	}

	switch parsed.CurrentStep {
	case sheerid.StepSuccess:
		result.Status = StatusSucceeded
	case sheerid.StepError:
		result.Status = StatusRejected
		result.Message = strings.Join(parsed.ErrorIDs, ", ")
		if result.Message == "" {
			result.Message = "verification rejected"
		}
	default:
		result.Status = StatusPending
	}

	log.Printf("[Verifier] %s verification %s -> %s", v.service, verificationID, parsed.CurrentStep)
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
