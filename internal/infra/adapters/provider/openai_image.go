package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"

	"ai-generation-platform/internal/config"
	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*OpenAIImageAdapter)(nil)

// OpenAIImageAdapter covers the synchronous image models. Both generation
// and inpainting return the asset in the create response, so Submit fills
// Submission.ResultURL and the task never enters the polling loop.
type OpenAIImageAdapter struct {
	sdk    openai.Client
	base   string
	apiKey string
	client *http.Client
	log    *zerolog.Logger
}

func NewOpenAIImageAdapter(cfg config.OpenAIConfig, log *zerolog.Logger) (*OpenAIImageAdapter, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrVendorNotConfigured
	}
	return &OpenAIImageAdapter{
		sdk: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
		),
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: 120 * time.Second},
		log:    log,
	}, nil
}

func (o *OpenAIImageAdapter) Vendor() model.Vendor { return model.VendorOpenAI }

func dalleSize(aspectRatio string) openai.ImageGenerateParamsSize {
	switch aspectRatio {
	case "16:9", "1792:1024":
		return openai.ImageGenerateParamsSize1792x1024
	case "9:16", "1024:1792":
		return openai.ImageGenerateParamsSize1024x1792
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}

func (o *OpenAIImageAdapter) Submit(ctx context.Context, req *model.CanonicalJobRequest) (adapter.Submission, error) {
	var (
		url string
		err error
	)
	if req.VendorModel == "dall-e-2" {
		url, err = o.inpaint(ctx, req)
	} else {
		url, err = o.generate(ctx, req)
	}
	if err != nil {
		var submitErr *adapter.SubmitError
		if errors.As(err, &submitErr) {
			return adapter.Submission{}, err
		}
		return adapter.Submission{}, &adapter.SubmitError{Vendor: model.VendorOpenAI, Message: err.Error()}
	}

	return adapter.Submission{TaskID: req.JobID, ResultURL: url}, nil
}

func (o *OpenAIImageAdapter) generate(ctx context.Context, req *model.CanonicalJobRequest) (string, error) {
	resp, err := o.sdk.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          openai.ImageModel(req.VendorModel),
		N:              openai.Int(1),
		Size:           dalleSize(req.AspectRatio),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &adapter.SubmitError{Vendor: model.VendorOpenAI, StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("no image in response")
	}
	return resp.Data[0].URL, nil
}

// inpaint calls the image edit endpoint directly. The first source image is
// the base picture, the second the transparency mask marking the region to
// repaint.
func (o *OpenAIImageAdapter) inpaint(ctx context.Context, req *model.CanonicalJobRequest) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("model", req.VendorModel)
	_ = w.WriteField("prompt", req.Prompt)
	_ = w.WriteField("n", "1")
	_ = w.WriteField("size", "1024x1024")
	_ = w.WriteField("response_format", "url")

	if err := writeImagePart(w, "image", req.SourceImages[0]); err != nil {
		return "", err
	}
	if err := writeImagePart(w, "mask", req.SourceImages[1]); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/images/edits", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		return "", &adapter.SubmitError{Vendor: model.VendorOpenAI, StatusCode: resp.StatusCode, Message: apiErrorMessage(raw)}
	}

	var payload struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	if len(payload.Data) == 0 || payload.Data[0].URL == "" {
		return "", errors.New("no image in edit response")
	}
	return payload.Data[0].URL, nil
}

func writeImagePart(w *multipart.Writer, field string, img model.SourceImage) error {
	part, err := w.CreateFormFile(field, field+".png")
	if err != nil {
		return err
	}
	_, err = part.Write(img.Data)
	return err
}

// CheckStatus never runs for this vendor because Submit returns the asset
// inline. It exists to satisfy the port.
func (o *OpenAIImageAdapter) CheckStatus(ctx context.Context, sub adapter.Submission) (adapter.StatusResult, error) {
	return adapter.StatusResult{}, errors.New("openai image tasks complete at submission")
}
