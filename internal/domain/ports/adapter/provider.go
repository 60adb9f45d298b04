package adapter

import (
	"context"
	"fmt"

	"ai-generation-platform/internal/domain/model"
)

// Submission is what a vendor hands back for an accepted job.
type Submission struct {
	TaskID string
	// PollEndpoint is the vendor status URL chosen at submit time. Some
	// vendors poll a different path depending on how the job was submitted
	// (text-conditioned vs image-conditioned), so the adapter records the
	// decision here instead of re-deriving it on every check.
	PollEndpoint string
	// ResultURL is set when the vendor completed synchronously (single-call
	// image generation). The poller skips the loop entirely in that case.
	ResultURL string
}

type StatusState string

const (
	StatusPending   StatusState = "pending"
	StatusSucceeded StatusState = "succeeded"
	StatusFailed    StatusState = "failed"
)

// StatusResult is one poll outcome. Message carries the raw vendor failure
// text; it reaches users only after sanitization.
type StatusResult struct {
	State     StatusState
	ResultURL string
	Message   string
}

// SubmitError reports a vendor rejecting the submission itself (non-2xx).
// The orchestrator treats it exactly like a post-polling failure: refund and
// report.
type SubmitError struct {
	Vendor     model.Vendor
	StatusCode int
	Message    string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s submit failed (http %d): %s", e.Vendor, e.StatusCode, e.Message)
}

// ProviderAdapter is the port every vendor family implements. Authentication
// is the adapter's business; nothing auth-related leaks to the poller.
type ProviderAdapter interface {
	Vendor() model.Vendor
	// Submit translates the canonical request into a vendor call and returns
	// the task handle, or *SubmitError when the vendor refused it.
	Submit(ctx context.Context, req *model.CanonicalJobRequest) (Submission, error)
	// CheckStatus interprets the vendor's status payload for one task.
	// A transport-level error is returned as err and counts as transient.
	CheckStatus(ctx context.Context, sub Submission) (StatusResult, error)
}
