package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-generation-platform/internal/config"
	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ProviderAdapter = (*KlingAdapter)(nil)

// KlingAdapter drives the Kling video API: task creation on the text2video or
// image2video endpoint, then GET polling on the same endpoint type. Auth is a
// per-request short-lived JWT.
type KlingAdapter struct {
	base   string
	issuer *klingTokenIssuer
	client *http.Client
	log    *zerolog.Logger
}

func NewKlingAdapter(cfg config.KlingConfig, log *zerolog.Logger) (*KlingAdapter, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, domain.ErrVendorNotConfigured
	}
	return &KlingAdapter{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		issuer: newKlingTokenIssuer(cfg.AccessKey, cfg.SecretKey),
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}, nil
}

func (k *KlingAdapter) Vendor() model.Vendor { return model.VendorKling }

// klingAspectRatio folds the platform's pixel-pair ratios into the three
// ratios Kling accepts.
func klingAspectRatio(ratio string) string {
	switch ratio {
	case "", "16:9", "1280:720", "1920:1080", "1280:768", "1104:832", "1584:672":
		return "16:9"
	case "9:16", "720:1280", "1080:1920", "768:1280", "832:1104":
		return "9:16"
	case "1:1", "960:960", "1024:1024":
		return "1:1"
	}
	parts := strings.SplitN(ratio, ":", 2)
	if len(parts) == 2 {
		w, _ := strconv.Atoi(parts[0])
		h, _ := strconv.Atoi(parts[1])
		if w > 0 && h > 0 {
			aspect := float64(w) / float64(h)
			switch {
			case aspect > 1.5:
				return "16:9"
			case aspect < 0.6:
				return "9:16"
			default:
				return "1:1"
			}
		}
	}
	return "16:9"
}

// endpoint picks text2video or image2video. An explicit model name wins;
// auto-detection by image presence is the fallback for the legacy "kling" id.
func (k *KlingAdapter) endpoint(req *model.CanonicalJobRequest) string {
	hasImage := len(req.SourceImages) > 0
	switch {
	case req.VendorModel == "kling_t2v":
		return k.base + "/v1/videos/text2video"
	case req.VendorModel == "kling_i2v" && hasImage:
		return k.base + "/v1/videos/image2video"
	case hasImage:
		return k.base + "/v1/videos/image2video"
	default:
		return k.base + "/v1/videos/text2video"
	}
}

type klingCreateResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

func (k *KlingAdapter) Submit(ctx context.Context, req *model.CanonicalJobRequest) (adapter.Submission, error) {
	duration := req.DurationSeconds
	if duration != 5 && duration != 10 {
		duration = 5
	}

	body := map[string]any{
		"prompt":       req.Prompt,
		"duration":     strconv.Itoa(duration), // Kling wants the duration as a string
		"aspect_ratio": klingAspectRatio(req.AspectRatio),
		"mode":         "pro",
	}
	// Bare base64, no data-URI prefix.
	if len(req.SourceImages) > 0 {
		body["image"] = base64.StdEncoding.EncodeToString(req.SourceImages[0].Data)
	}
	if len(req.SourceImages) > 1 {
		// End-frame control for precise animation.
		body["image_tail"] = base64.StdEncoding.EncodeToString(req.SourceImages[1].Data)
	}

	endpoint := k.endpoint(req)
	resp, err := k.postJSON(ctx, endpoint, body)
	if err != nil {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorKling, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return adapter.Submission{}, &adapter.SubmitError{
			Vendor:     model.VendorKling,
			StatusCode: resp.StatusCode,
			Message:    string(raw),
		}
	}

	var created klingCreateResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorKling, StatusCode: resp.StatusCode, Message: "unparseable create response"}
	}
	if created.Code != 0 || created.Data.TaskID == "" {
		return adapter.Submission{}, &adapter.SubmitError{
			Vendor:     model.VendorKling,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("task creation failed: %s", created.Message),
		}
	}

	k.log.Debug().Str("task_id", created.Data.TaskID).Str("endpoint", endpoint).Msg("kling task created")
	// Polling must hit the same endpoint type the task was created on.
	return adapter.Submission{TaskID: created.Data.TaskID, PollEndpoint: endpoint}, nil
}

type klingStatusResponse struct {
	Code int `json:"code"`
	Data struct {
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		TaskResult    struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

func (k *KlingAdapter) CheckStatus(ctx context.Context, sub adapter.Submission) (adapter.StatusResult, error) {
	endpoint := sub.PollEndpoint
	if endpoint == "" {
		endpoint = k.base + "/v1/videos/text2video"
	}
	token, err := k.issuer.Issue()
	if err != nil {
		return adapter.StatusResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/"+sub.TaskID, nil)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := k.client.Do(httpReq)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return adapter.StatusResult{}, fmt.Errorf("kling status check http %d", resp.StatusCode)
	}

	var status klingStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return adapter.StatusResult{}, err
	}

	switch status.Data.TaskStatus {
	case "succeed":
		url := ""
		if len(status.Data.TaskResult.Videos) > 0 {
			url = status.Data.TaskResult.Videos[0].URL
		}
		return adapter.StatusResult{State: adapter.StatusSucceeded, ResultURL: url}, nil
	case "failed":
		msg := status.Data.TaskStatusMsg
		if msg == "" {
			msg = "video generation failed"
		}
		return adapter.StatusResult{State: adapter.StatusFailed, Message: msg}, nil
	default:
		// "submitted" / "processing"
		return adapter.StatusResult{State: adapter.StatusPending}, nil
	}
}

func (k *KlingAdapter) postJSON(ctx context.Context, endpoint string, body map[string]any) (*http.Response, error) {
	token, err := k.issuer.Issue()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	return k.client.Do(httpReq)
}
