package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-generation-platform/internal/config"
	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*RunwayAdapter)(nil)

// RunwayAdapter serves both Runway families: video (gen/veo models) and
// text-to-image (gen4_image). Every submission lands in the shared
// /v1/tasks/{id} polling endpoint, so one CheckStatus covers all of them.
type RunwayAdapter struct {
	base    string
	apiKey  string
	version string
	client  *http.Client
	log     *zerolog.Logger
}

func NewRunwayAdapter(cfg config.RunwayConfig, log *zerolog.Logger) (*RunwayAdapter, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrVendorNotConfigured
	}
	return &RunwayAdapter{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		version: cfg.Version,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}, nil
}

func (r *RunwayAdapter) Vendor() model.Vendor { return model.VendorRunway }

// veoRatioSwap mirrors the VEO models' reversed aspect-ratio behavior.
var veoRatioSwap = map[string]string{
	"1280:720":  "720:1280",
	"720:1280":  "1280:720",
	"1920:1080": "1080:1920",
	"1080:1920": "1920:1080",
}

// runwayDuration snaps the requested duration to what the model accepts.
func runwayDuration(modelName string, seconds int) int {
	switch modelName {
	case "gen3a_turbo":
		if seconds == 10 {
			return 10
		}
		return 5
	case "gen4_turbo":
		if seconds < 2 {
			return 2
		}
		if seconds > 10 {
			return 10
		}
		return seconds
	case "veo3":
		return 8
	case "veo3.1", "veo3.1_fast":
		switch seconds {
		case 4, 6, 8:
			return seconds
		}
		return 6
	}
	return seconds
}

func dataURI(img model.SourceImage) string {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func (r *RunwayAdapter) Submit(ctx context.Context, req *model.CanonicalJobRequest) (adapter.Submission, error) {
	var (
		path string
		body map[string]any
	)

	switch {
	case req.VendorModel == "gen4_image":
		path = "/v1/text_to_image"
		ratio := req.AspectRatio
		if ratio == "" {
			ratio = "1024:1024"
		}
		body = map[string]any{
			"model":      req.VendorModel,
			"promptText": req.Prompt,
			"ratio":      ratio,
		}

	case len(req.SourceImages) > 0:
		// gen4_turbo / gen3a_turbo only run here; VEO models land here too
		// when a start frame is attached.
		path = "/v1/image_to_video"
		body = map[string]any{
			"model":       req.VendorModel,
			"promptImage": dataURI(req.SourceImages[0]),
			"promptText":  req.Prompt,
			"duration":    runwayDuration(req.VendorModel, req.DurationSeconds),
			"ratio":       r.ratio(req),
		}

	default:
		// Text-conditioned path, VEO models only. gen4/gen3a without an
		// image never reach the adapter (caught at request validation).
		path = "/v1/text_to_video"
		body = map[string]any{
			"model":      req.VendorModel,
			"promptText": req.Prompt,
			"duration":   runwayDuration(req.VendorModel, req.DurationSeconds),
			"ratio":      r.ratio(req),
		}
	}

	raw, status, err := r.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorRunway, Message: err.Error()}
	}
	if status >= 300 {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorRunway, StatusCode: status, Message: string(raw)}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil || created.ID == "" {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorRunway, StatusCode: status, Message: "no task id in create response"}
	}

	r.log.Debug().Str("task_id", created.ID).Str("model", req.VendorModel).Msg("runway task created")
	return adapter.Submission{TaskID: created.ID, PollEndpoint: r.base + "/v1/tasks/" + created.ID}, nil
}

func (r *RunwayAdapter) ratio(req *model.CanonicalJobRequest) string {
	ratio := req.AspectRatio
	if ratio == "" {
		ratio = "1280:720"
	}
	if strings.HasPrefix(req.VendorModel, "veo") {
		if swapped, ok := veoRatioSwap[ratio]; ok {
			return swapped
		}
	}
	return ratio
}

func (r *RunwayAdapter) CheckStatus(ctx context.Context, sub adapter.Submission) (adapter.StatusResult, error) {
	endpoint := sub.PollEndpoint
	if endpoint == "" {
		endpoint = r.base + "/v1/tasks/" + sub.TaskID
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	r.authorize(httpReq)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return adapter.StatusResult{}, fmt.Errorf("runway status check http %d", resp.StatusCode)
	}

	var task struct {
		Status  string   `json:"status"`
		Output  []string `json:"output"`
		Failure string   `json:"failure"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return adapter.StatusResult{}, err
	}

	switch task.Status {
	case "SUCCEEDED":
		url := ""
		if len(task.Output) > 0 {
			url = task.Output[0]
		}
		return adapter.StatusResult{State: adapter.StatusSucceeded, ResultURL: url}, nil
	case "FAILED":
		msg := task.Failure
		if msg == "" {
			msg = "generation failed"
		}
		return adapter.StatusResult{State: adapter.StatusFailed, Message: msg}, nil
	default:
		// PENDING / RUNNING / THROTTLED all mean "not done yet".
		return adapter.StatusResult{State: adapter.StatusPending}, nil
	}
}

func (r *RunwayAdapter) do(ctx context.Context, method, path string, body map[string]any) ([]byte, int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, r.base+path, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	r.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return raw, resp.StatusCode, nil
}

func (r *RunwayAdapter) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("X-Runway-Version", r.version)
}
