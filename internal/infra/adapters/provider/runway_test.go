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

func newTestRunway(t *testing.T, baseURL string) *RunwayAdapter {
	t.Helper()
	r, err := NewRunwayAdapter(config.RunwayConfig{
		APIKey:  "rw-key",
		BaseURL: baseURL,
		Version: "2024-11-06",
	}, testLogger())
	if err != nil {
		t.Fatalf("NewRunwayAdapter: %v", err)
	}
	return r
}

func TestRunwayDurationSnapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model   string
		in, out int
	}{
		{"gen3a_turbo", 7, 5},
		{"gen3a_turbo", 10, 10},
		{"gen4_turbo", 0, 2},
		{"gen4_turbo", 6, 6},
		{"gen4_turbo", 30, 10},
		{"veo3", 4, 8},
		{"veo3", 100, 8},
		{"veo3.1", 4, 4},
		{"veo3.1", 5, 6},
		{"veo3.1_fast", 8, 8},
		{"veo3.1_fast", 11, 6},
	}
	for _, tc := range cases {
		if got := runwayDuration(tc.model, tc.in); got != tc.out {
			t.Errorf("runwayDuration(%s, %d) = %d, want %d", tc.model, tc.in, got, tc.out)
		}
	}
}

func TestRunwayAdapter_SubmitImageToVideo(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotVersion string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("X-Runway-Version")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rw-task-1"})
	}))
	defer srv.Close()

	rw := newTestRunway(t, srv.URL)
	sub, err := rw.Submit(context.Background(), &model.CanonicalJobRequest{
		JobID:           "job-1",
		MediaKind:       model.MediaKindVideo,
		Prompt:          "pan across the skyline",
		VendorModel:     "gen4_turbo",
		DurationSeconds: 5,
		AspectRatio:     "1280:720",
		SourceImages:    []model.SourceImage{{Data: []byte("png-bytes"), MIME: "image/png"}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.TaskID != "rw-task-1" {
		t.Fatalf("task id %q", sub.TaskID)
	}
	if gotPath != "/v1/image_to_video" {
		t.Fatalf("path %q", gotPath)
	}
	if gotAuth != "Bearer rw-key" || gotVersion != "2024-11-06" {
		t.Fatalf("auth headers: %q / %q", gotAuth, gotVersion)
	}
	img, _ := gotBody["promptImage"].(string)
	if !strings.HasPrefix(img, "data:image/png;base64,") {
		t.Fatalf("promptImage must be a data URI, got %q", img)
	}
	if gotBody["duration"] != float64(5) {
		t.Fatalf("duration = %v", gotBody["duration"])
	}
}

func TestRunwayAdapter_SubmitVeoSwapsRatio(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rw-task-2"})
	}))
	defer srv.Close()

	rw := newTestRunway(t, srv.URL)
	_, err := rw.Submit(context.Background(), &model.CanonicalJobRequest{
		JobID:           "job-2",
		MediaKind:       model.MediaKindVideo,
		Prompt:          "a storm forming",
		VendorModel:     "veo3",
		DurationSeconds: 4, // forced to 8
		AspectRatio:     "1280:720",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotPath != "/v1/text_to_video" {
		t.Fatalf("path %q", gotPath)
	}
	if gotBody["ratio"] != "720:1280" {
		t.Fatalf("veo ratio not swapped: %v", gotBody["ratio"])
	}
	if gotBody["duration"] != float64(8) {
		t.Fatalf("veo3 duration must be 8, got %v", gotBody["duration"])
	}
}

func TestRunwayAdapter_SubmitTextToImage(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rw-img-1"})
	}))
	defer srv.Close()

	rw := newTestRunway(t, srv.URL)
	_, err := rw.Submit(context.Background(), &model.CanonicalJobRequest{
		JobID:       "job-3",
		MediaKind:   model.MediaKindImage,
		Prompt:      "an isometric city",
		VendorModel: "gen4_image",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotPath != "/v1/text_to_image" {
		t.Fatalf("path %q", gotPath)
	}
	if gotBody["promptText"] != "an isometric city" {
		t.Fatalf("promptText = %v", gotBody["promptText"])
	}
}

func TestRunwayAdapter_CheckStatus(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tasks/rw-task-1" {
			t.Errorf("path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	rw := newTestRunway(t, srv.URL)
	sub := adapter.Submission{TaskID: "rw-task-1"}

	for _, pending := range []string{"PENDING", "RUNNING", "THROTTLED"} {
		payload = map[string]any{"status": pending}
		res, err := rw.CheckStatus(context.Background(), sub)
		if err != nil || res.State != adapter.StatusPending {
			t.Fatalf("%s: res=%+v err=%v", pending, res, err)
		}
	}

	payload = map[string]any{"status": "SUCCEEDED", "output": []string{"https://cdn.runway/out.mp4"}}
	res, err := rw.CheckStatus(context.Background(), sub)
	if err != nil || res.State != adapter.StatusSucceeded || res.ResultURL != "https://cdn.runway/out.mp4" {
		t.Fatalf("succeeded: res=%+v err=%v", res, err)
	}

	payload = map[string]any{"status": "FAILED", "failure": "Input did not pass content moderation"}
	res, err = rw.CheckStatus(context.Background(), sub)
	if err != nil || res.State != adapter.StatusFailed || res.Message != "Input did not pass content moderation" {
		t.Fatalf("failed: res=%+v err=%v", res, err)
	}
}
