package model

import "time"

// GenerationRecord is the stored result of a successful job, kept so the
// library view can list what an account has generated.
type GenerationRecord struct {
	ID              string
	AccountID       string
	Vendor          Vendor
	Model           string
	MediaKind       MediaKind
	Prompt          string
	URL             string
	DurationSeconds int
	AspectRatio     string
	CreditsSpent    int64
	CreatedAt       time.Time
}
