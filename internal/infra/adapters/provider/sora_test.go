package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-generation-platform/internal/config"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
)

func newTestSora(t *testing.T, baseURL string) *SoraAdapter {
	t.Helper()
	s, err := NewSoraAdapter(config.OpenAIConfig{APIKey: "oa-key", BaseURL: baseURL}, testLogger())
	if err != nil {
		t.Fatalf("NewSoraAdapter: %v", err)
	}
	return s
}

func TestSoraSeconds(t *testing.T) {
	t.Parallel()

	cases := [][2]int{{4, 4}, {8, 8}, {12, 12}, {0, 4}, {5, 8}, {9, 12}, {100, 12}, {3, 4}}
	for _, tc := range cases {
		if got := soraSeconds(tc[0]); got != tc[1] {
			t.Errorf("soraSeconds(%d) = %d, want %d", tc[0], got, tc[1])
		}
	}
}

func TestSoraAdapter_SubmitJSON(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("path %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "video_abc", "status": "queued"})
	}))
	defer srv.Close()

	s := newTestSora(t, srv.URL)
	sub, err := s.Submit(context.Background(), &model.CanonicalJobRequest{
		JobID:           "job-1",
		MediaKind:       model.MediaKindVideo,
		Prompt:          "a paper boat in rain",
		VendorModel:     "sora2",
		DurationSeconds: 9, // snaps to 12
		AspectRatio:     "9:16",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.TaskID != "video_abc" {
		t.Fatalf("task id %q", sub.TaskID)
	}
	if gotBody["seconds"] != "12" {
		t.Fatalf("seconds = %v, want string \"12\"", gotBody["seconds"])
	}
	if gotBody["size"] != "720x1280" {
		t.Fatalf("size = %v", gotBody["size"])
	}
}

func TestSoraAdapter_SubmitMultipartWithReference(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart, got %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("model") != "sora2" {
			t.Errorf("model = %q", r.FormValue("model"))
		}
		if _, _, err := r.FormFile("input_reference"); err != nil {
			t.Errorf("input_reference missing: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "video_ref", "status": "queued"})
	}))
	defer srv.Close()

	s := newTestSora(t, srv.URL)
	_, err := s.Submit(context.Background(), &model.CanonicalJobRequest{
		JobID:        "job-2",
		MediaKind:    model.MediaKindVideo,
		Prompt:       "animate the sketch",
		VendorModel:  "sora2",
		SourceImages: []model.SourceImage{{Data: []byte("sketch"), MIME: "image/png"}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSoraAdapter_SubmitModerationBlocked(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "moderation_blocked", "message": "Your request was blocked by our moderation system."},
		})
	}))
	defer srv.Close()

	s := newTestSora(t, srv.URL)
	_, err := s.Submit(context.Background(), &model.CanonicalJobRequest{
		MediaKind: model.MediaKindVideo, Prompt: "x", VendorModel: "sora2",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "blocked by our moderation system") {
		t.Fatalf("moderation message lost: %v", err)
	}
}

func TestSoraAdapter_CheckStatus(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	s := newTestSora(t, srv.URL)
	sub := adapter.Submission{TaskID: "video_abc", PollEndpoint: srv.URL + "/videos/video_abc"}

	payload = map[string]any{"id": "video_abc", "status": "in_progress"}
	res, err := s.CheckStatus(context.Background(), sub)
	if err != nil || res.State != adapter.StatusPending {
		t.Fatalf("in_progress: res=%+v err=%v", res, err)
	}

	payload = map[string]any{"id": "video_abc", "status": "completed"}
	res, err = s.CheckStatus(context.Background(), sub)
	if err != nil || res.State != adapter.StatusSucceeded {
		t.Fatalf("completed: res=%+v err=%v", res, err)
	}
	if !strings.HasSuffix(res.ResultURL, "/videos/video_abc/content") {
		t.Fatalf("content url %q", res.ResultURL)
	}

	payload = map[string]any{"id": "video_abc", "status": "failed", "error": map[string]any{"message": "generation failed upstream"}}
	res, err = s.CheckStatus(context.Background(), sub)
	if err != nil || res.State != adapter.StatusFailed || res.Message != "generation failed upstream" {
		t.Fatalf("failed: res=%+v err=%v", res, err)
	}
}
