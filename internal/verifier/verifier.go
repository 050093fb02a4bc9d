// Package verifier defines the per-service verification capability: link
// parsing and document submission against a third-party program.
package verifier

import (
	"context"
	"regexp"

	"github.com/razour08/tgbot-verify/internal/models"
)

// Status is the tagged outcome of a verify call. Expected outcomes are
// values here; only unexpected failures travel on the error channel.
type Status int

const (
	// StatusSucceeded means the verification finished with no further
	// review needed.
	StatusSucceeded Status = iota
	// StatusPending means the submission was accepted and a remote review
	// is still running.
	StatusPending
	// StatusRejected means the service rejected the submission.
	StatusRejected
)

// Result is what a verifier reports back to the orchestrator.
type Result struct {
	Status         Status
	VerificationID string
	RewardCode     string
	RedirectURL    string
	Message        string
	Raw            string
}

// Verifier is the capability for one service type. ParseVerificationID is
// pure; Verify may be slow and must run under the concurrency limiter.
type Verifier interface {
	Service() models.ServiceType
	ParseVerificationID(rawURL string) string
	Verify(ctx context.Context, verificationID string) (*Result, error)
}

// Registry maps service types to their verifier.
type Registry struct {
	verifiers map[models.ServiceType]Verifier
}

// NewRegistry builds a registry from the given verifiers.
func NewRegistry(verifiers ...Verifier) *Registry {
	m := make(map[models.ServiceType]Verifier, len(verifiers))
	for _, v := range verifiers {
		m[v.Service()] = v
	}
	return &Registry{verifiers: m}
}

// Get returns the verifier for a service type.
func (r *Registry) Get(svc models.ServiceType) (Verifier, bool) {
	v, ok := r.verifiers[svc]
	return v, ok
}

// Services lists the registered service types.
func (r *Registry) Services() []models.ServiceType {
	out := make([]models.ServiceType, 0, len(r.verifiers))
	for svc := range r.verifiers {
		out = append(out, svc)
	}
	return out
}

// SheerID verification links look like
// https://services.sheerid.com/verify/<programId>/?verificationId=<id>
// and some programs hand out the bare 24-hex verification ID instead.
var (
	verificationIDParam = regexp.MustCompile(`[?&]verificationId=([0-9a-fA-F]{24})`)
	verificationIDPath  = regexp.MustCompile(`/verification/([0-9a-fA-F]{24})`)
	bareVerificationID  = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// ExtractVerificationID pulls the 24-hex verification ID out of a pasted
// link or returns it unchanged when given bare. Empty means invalid.
func ExtractVerificationID(raw string) string {
	if m := verificationIDParam.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := verificationIDPath.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if bareVerificationID.MatchString(raw) {
		return raw
	}
	return ""
}
