package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
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

var _ adapter.ProviderAdapter = (*SoraAdapter)(nil)

// SoraAdapter drives the OpenAI video generation endpoint. Video creation
// is asynchronous, so submissions go through the regular polling loop; the
// final asset is fetched from the task's /content URL.
type SoraAdapter struct {
	base   string
	apiKey string
	client *http.Client
	log    *zerolog.Logger
}

func NewSoraAdapter(cfg config.OpenAIConfig, log *zerolog.Logger) (*SoraAdapter, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrVendorNotConfigured
	}
	return &SoraAdapter{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: 60 * time.Second},
		log:    log,
	}, nil
}

func (s *SoraAdapter) Vendor() model.Vendor { return model.VendorSora }

func soraSeconds(requested int) int {
	switch requested {
	case 4, 8, 12:
		return requested
	}
	if requested > 8 {
		return 12
	}
	if requested > 4 {
		return 8
	}
	return 4
}

func soraSize(aspectRatio string) string {
	switch aspectRatio {
	case "9:16", "720:1280", "1080:1920":
		return "720x1280"
	default:
		return "1280x720"
	}
}

type soraVideo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *SoraAdapter) Submit(ctx context.Context, req *model.CanonicalJobRequest) (adapter.Submission, error) {
	seconds := soraSeconds(req.DurationSeconds)
	size := soraSize(req.AspectRatio)

	var httpReq *http.Request
	var err error
	if len(req.SourceImages) > 0 {
		httpReq, err = s.multipartRequest(ctx, req, seconds, size)
	} else {
		httpReq, err = s.jsonRequest(ctx, req, seconds, size)
	}
	if err != nil {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorSora, Message: err.Error()}
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorSora, Message: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorSora, StatusCode: resp.StatusCode, Message: apiErrorMessage(raw)}
	}

	var video soraVideo
	if err := json.Unmarshal(raw, &video); err != nil || video.ID == "" {
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorSora, StatusCode: resp.StatusCode, Message: "no video id in create response"}
	}

	s.log.Debug().Str("task_id", video.ID).Msg("sora video created")
	return adapter.Submission{TaskID: video.ID, PollEndpoint: s.base + "/videos/" + video.ID}, nil
}

func (s *SoraAdapter) jsonRequest(ctx context.Context, req *model.CanonicalJobRequest, seconds int, size string) (*http.Request, error) {
	body, err := json.Marshal(map[string]any{
		"model":   req.VendorModel,
		"prompt":  req.Prompt,
		"seconds": strconv.Itoa(seconds),
		"size":    size,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/videos", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	s.authorize(httpReq)
	return httpReq, nil
}

func (s *SoraAdapter) multipartRequest(ctx context.Context, req *model.CanonicalJobRequest, seconds int, size string) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("model", req.VendorModel)
	_ = w.WriteField("prompt", req.Prompt)
	_ = w.WriteField("seconds", strconv.Itoa(seconds))
	_ = w.WriteField("size", size)

	part, err := w.CreateFormFile("input_reference", "reference.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.SourceImages[0].Data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/videos", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	s.authorize(httpReq)
	return httpReq, nil
}

func (s *SoraAdapter) CheckStatus(ctx context.Context, sub adapter.Submission) (adapter.StatusResult, error) {
	endpoint := sub.PollEndpoint
	if endpoint == "" {
		endpoint = s.base + "/videos/" + sub.TaskID
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	s.authorize(httpReq)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return adapter.StatusResult{}, fmt.Errorf("sora status check http %d", resp.StatusCode)
	}

	var video soraVideo
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return adapter.StatusResult{}, err
	}

	switch video.Status {
	case "completed":
		return adapter.StatusResult{State: adapter.StatusSucceeded, ResultURL: endpoint + "/content"}, nil
	case "failed":
		msg := "video generation failed"
		if video.Error != nil {
			if video.Error.Message != "" {
				msg = video.Error.Message
			} else if video.Error.Code != "" {
				msg = video.Error.Code
			}
		}
		return adapter.StatusResult{State: adapter.StatusFailed, Message: msg}, nil
	default:
		// queued / in_progress
		return adapter.StatusResult{State: adapter.StatusPending}, nil
	}
}

func (s *SoraAdapter) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

// apiErrorMessage pulls the human-readable message out of an OpenAI error
// payload, falling back to the raw body.
func apiErrorMessage(raw []byte) string {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error.Message != "" {
			return payload.Error.Message
		}
		if payload.Error.Code != "" {
			return payload.Error.Code
		}
	}
	return string(raw)
}
