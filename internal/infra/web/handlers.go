package web

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/infra/logging"
	"ai-generation-platform/internal/usecase"
)

// Default model per route segment; the request body may override with any
// model of the same vendor and kind.
var videoDefaults = map[string]string{
	"kling":  "kling",
	"runway": "gen4_turbo",
	"sora":   "sora2",
}

var imageDefaults = map[string]string{
	"runway":  "gen4_image",
	"dalle":   "dall-e-3",
	"inpaint": "dall-e-2",
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	defaultModel, ok := videoDefaults[chi.URLParam(r, "vendor")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown video vendor")
		return
	}
	s.generate(w, r, model.MediaKindVideo, defaultModel)
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	defaultModel, ok := imageDefaults[chi.URLParam(r, "target")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown image target")
		return
	}
	s.generate(w, r, model.MediaKindImage, defaultModel)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, kind model.MediaKind, defaultModel string) {
	claims := claimsFrom(r.Context())

	req, err := buildJobRequest(r, kind, defaultModel)
	if err != nil {
		writeError(w, statusForDomainError(err), requestErrorMessage(err))
		return
	}

	ctx := logging.WithJobID(r.Context(), req.JobID)
	log := logging.With(ctx, s.log)

	cost, err := s.creditsUC.DebitForJob(ctx, claims.AccountID, req)
	if err != nil {
		if err == domain.ErrInsufficientCredits {
			writeError(w, http.StatusPaymentRequired, "Insufficient credits for this generation.")
			return
		}
		writeError(w, statusForDomainError(err), requestErrorMessage(err))
		return
	}

	outcome, err := s.genUC.Generate(ctx, claims.AccountID, req)
	if err != nil {
		writeError(w, statusForDomainError(err), requestErrorMessage(err))
		return
	}

	if outcome.Success {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"url":           outcome.URL,
			"model":         req.VendorModel,
			"prompt":        req.Prompt,
			"duration":      req.DurationSeconds,
			"credits_spent": cost,
		})
		return
	}

	status := http.StatusInternalServerError
	if outcome.Category == usecase.FailureModeration {
		status = http.StatusBadRequest
	}

	body := map[string]any{
		"error":    outcome.UserMessage,
		"refunded": outcome.Refund.Succeeded,
	}
	if outcome.Refund.Attempted {
		body["refund_amount"] = outcome.Refund.Amount
	}
	if outcome.Refund.NewBalance != nil {
		body["new_balance"] = *outcome.Refund.NewBalance
	}
	if claims.IsAdmin() {
		body["details"] = outcome.RawMessage
	}
	log.Debug().Int("status", status).Msg("generation request finished with failure")
	writeJSON(w, status, body)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	modelName := chi.URLParam(r, "model")
	taskID := chi.URLParam(r, "taskID")

	res, err := s.genUC.CheckTask(r.Context(), modelName, taskID)
	if err != nil {
		writeError(w, statusForDomainError(err), requestErrorMessage(err))
		return
	}

	body := map[string]any{"status": string(res.State)}
	if res.ResultURL != "" {
		body["url"] = res.ResultURL
	}
	if claims.IsAdmin() && res.Message != "" {
		body["details"] = res.Message
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	balance, err := s.creditsUC.Balance(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": balance})
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := s.genUC.ListGenerations(r.Context(), claims.AccountID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list generations")
		return
	}

	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, map[string]any{
			"id":            rec.ID,
			"model":         rec.Model,
			"media_kind":    string(rec.MediaKind),
			"prompt":        rec.Prompt,
			"url":           rec.URL,
			"duration":      rec.DurationSeconds,
			"aspect_ratio":  rec.AspectRatio,
			"credits_spent": rec.CreditsSpent,
			"created_at":    rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"generations": out})
}

// ===== request parsing =====

type jsonJobRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Duration    int      `json:"duration"`
	AspectRatio string   `json:"aspect_ratio"`
	Images      []string `json:"images"` // base64, first is the main frame
}

// buildJobRequest accepts both JSON bodies (base64 images) and multipart
// forms (file fields: image, image_tail or mask).
func buildJobRequest(r *http.Request, kind model.MediaKind, defaultModel string) (*model.CanonicalJobRequest, error) {
	req := &model.CanonicalJobRequest{
		JobID:       ulid.Make().String(),
		MediaKind:   kind,
		VendorModel: defaultModel,
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := parseMultipart(r, req); err != nil {
			return nil, err
		}
	} else {
		if err := parseJSON(r, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func parseJSON(r *http.Request, req *model.CanonicalJobRequest) error {
	var body jsonJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.ErrInvalidArgument
	}
	req.Prompt = strings.TrimSpace(body.Prompt)
	if body.Model != "" {
		req.VendorModel = body.Model
	}
	req.DurationSeconds = body.Duration
	req.AspectRatio = body.AspectRatio
	for _, img := range body.Images {
		data, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			return domain.ErrInvalidArgument
		}
		req.SourceImages = append(req.SourceImages, model.SourceImage{Data: data, MIME: "image/png"})
	}
	return nil
}

// maxUploadBytes bounds in-memory multipart buffering; larger files spill to
// disk per net/http defaults.
const maxUploadBytes = 32 << 20

func parseMultipart(r *http.Request, req *model.CanonicalJobRequest) error {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return domain.ErrInvalidArgument
	}
	req.Prompt = strings.TrimSpace(r.FormValue("prompt"))
	if v := r.FormValue("model"); v != "" {
		req.VendorModel = v
	}
	if v := r.FormValue("duration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return domain.ErrInvalidArgument
		}
		req.DurationSeconds = d
	}
	req.AspectRatio = r.FormValue("aspect_ratio")

	// Field order matters for inpainting: the mask must follow the base image.
	for _, field := range []string{"image", "image_tail", "mask"} {
		img, ok, err := formImage(r, field)
		if err != nil {
			return err
		}
		if ok {
			req.SourceImages = append(req.SourceImages, img)
		}
	}
	return nil
}

func formImage(r *http.Request, field string) (model.SourceImage, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return model.SourceImage{}, false, nil
		}
		return model.SourceImage{}, false, domain.ErrInvalidArgument
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return model.SourceImage{}, false, domain.ErrInvalidArgument
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return model.SourceImage{Data: data, MIME: mime}, true, nil
}

func requestErrorMessage(err error) string {
	switch err {
	case domain.ErrInvalidArgument:
		return "Invalid request. Check the prompt, duration, and attached images."
	case domain.ErrUnsupportedModel:
		return "This model is not available for the requested media type."
	case domain.ErrMissingSourceImage:
		return "This model requires a source image."
	case domain.ErrInsufficientCredits:
		return "Insufficient credits for this generation."
	case domain.ErrVendorNotConfigured:
		return "This vendor is not configured on the server."
	case domain.ErrNotFound:
		return "Not found."
	default:
		return "Request failed."
	}
}
