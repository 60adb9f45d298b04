package model

import (
	"math"
	"strings"

	"ai-generation-platform/internal/domain"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Vendor identifies a provider family, not a single model.
type Vendor string

const (
	VendorKling  Vendor = "kling"
	VendorRunway Vendor = "runway"
	VendorSora   Vendor = "sora"
	VendorOpenAI Vendor = "openai"
)

// SourceImage is a binary payload attached to a job: a start/end frame for
// video models, or image/mask for inpainting.
type SourceImage struct {
	Data []byte
	MIME string
}

// ModelSpec declares a generation model: which vendor serves it, what media it
// produces, and what it costs in platform credits.
type ModelSpec struct {
	Name             string
	Vendor           Vendor
	Kind             MediaKind
	Credits          int64   // fixed cost per job
	CreditsPerSecond float64 // used instead of Credits when > 0 (duration-priced)
	MinSourceImages  int // submission fails fast below this count (1 = image-conditioned only, 2 = image + mask)
	MaxSourceImages  int
}

// Cost returns the credit cost of one job for this model.
func (s ModelSpec) Cost(durationSeconds int) int64 {
	if s.CreditsPerSecond > 0 {
		if durationSeconds <= 0 {
			durationSeconds = 4
		}
		return int64(math.Ceil(float64(durationSeconds) * s.CreditsPerSecond))
	}
	return s.Credits
}

// modelCatalog holds every model the platform routes. Costs carry the 60%
// markup over upstream pricing that the platform charges.
var modelCatalog = map[string]ModelSpec{
	// Kling video (task + polling, JWT auth)
	"kling_t2v": {Name: "kling_t2v", Vendor: VendorKling, Kind: MediaKindVideo, Credits: 50, MaxSourceImages: 2},
	"kling_i2v": {Name: "kling_i2v", Vendor: VendorKling, Kind: MediaKindVideo, Credits: 50, MinSourceImages: 1, MaxSourceImages: 2},
	"kling":     {Name: "kling", Vendor: VendorKling, Kind: MediaKindVideo, Credits: 50, MaxSourceImages: 2}, // legacy id, endpoint auto-detected

	// Runway video (task + polling, bearer auth)
	"gen4_turbo":  {Name: "gen4_turbo", Vendor: VendorRunway, Kind: MediaKindVideo, Credits: 40, MinSourceImages: 1, MaxSourceImages: 1},
	"gen3a_turbo": {Name: "gen3a_turbo", Vendor: VendorRunway, Kind: MediaKindVideo, Credits: 80, MinSourceImages: 1, MaxSourceImages: 1},
	"veo3":        {Name: "veo3", Vendor: VendorRunway, Kind: MediaKindVideo, Credits: 512, MaxSourceImages: 1},
	"veo3.1":      {Name: "veo3.1", Vendor: VendorRunway, Kind: MediaKindVideo, Credits: 320, MaxSourceImages: 1},
	"veo3.1_fast": {Name: "veo3.1_fast", Vendor: VendorRunway, Kind: MediaKindVideo, Credits: 160, MaxSourceImages: 1},

	// Runway image (task + polling)
	"gen4_image": {Name: "gen4_image", Vendor: VendorRunway, Kind: MediaKindImage, Credits: 16, MaxSourceImages: 0},

	// Sora video (task + polling), priced per second
	"sora2": {Name: "sora2", Vendor: VendorSora, Kind: MediaKindVideo, CreditsPerSecond: 0.16, MaxSourceImages: 1},

	// OpenAI image (single call)
	"dall-e-3": {Name: "dall-e-3", Vendor: VendorOpenAI, Kind: MediaKindImage, Credits: 13, MaxSourceImages: 0},
	"dall-e-2": {Name: "dall-e-2", Vendor: VendorOpenAI, Kind: MediaKindImage, Credits: 15, MinSourceImages: 2, MaxSourceImages: 2}, // inpainting: image + mask
}

// LookupModel resolves a model identifier to its spec.
func LookupModel(name string) (ModelSpec, error) {
	spec, ok := modelCatalog[strings.TrimSpace(name)]
	if !ok {
		return ModelSpec{}, domain.ErrUnsupportedModel
	}
	return spec, nil
}

// CanonicalJobRequest is the normalized, vendor-agnostic description of one
// generation job. Built once per HTTP call and never mutated afterwards.
type CanonicalJobRequest struct {
	JobID           string
	MediaKind       MediaKind
	Prompt          string
	VendorModel     string
	SourceImages    []SourceImage
	DurationSeconds int
	AspectRatio     string
}

// Validate rejects a request before any vendor call is made. No debit has
// happened for a request that fails here, so no refund is owed.
func (r *CanonicalJobRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return domain.ErrInvalidArgument
	}
	spec, err := LookupModel(r.VendorModel)
	if err != nil {
		return err
	}
	if spec.Kind != r.MediaKind {
		return domain.ErrUnsupportedModel
	}
	if len(r.SourceImages) < spec.MinSourceImages {
		return domain.ErrMissingSourceImage
	}
	if len(r.SourceImages) > spec.MaxSourceImages {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Spec is a convenience accessor; callers must have validated first.
func (r *CanonicalJobRequest) Spec() ModelSpec {
	spec, _ := LookupModel(r.VendorModel)
	return spec
}
