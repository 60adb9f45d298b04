package usecase

import (
	"context"
	"testing"

	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
)

func TestCredits_DebitForJob(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.seed("acct-1", 100)
	uc := NewCreditsUseCase(ledger, newTestLogger())

	req := &model.CanonicalJobRequest{
		JobID:       "job-1",
		MediaKind:   model.MediaKindVideo,
		Prompt:      "city at dusk",
		VendorModel: "kling",
	}
	cost, err := uc.DebitForJob(context.Background(), "acct-1", req)
	if err != nil {
		t.Fatalf("DebitForJob: %v", err)
	}
	if cost != 50 {
		t.Fatalf("expected cost 50, got %d", cost)
	}
	if bal, _ := uc.Balance(context.Background(), "acct-1"); bal != 50 {
		t.Fatalf("expected balance 50 after debit, got %d", bal)
	}
	if !ledger.hasRef(model.TransactionTypeDebit, "job-1") {
		t.Fatal("debit does not reference the job")
	}
}

func TestCredits_DurationPricedModel(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.seed("acct-1", 100)
	uc := NewCreditsUseCase(ledger, newTestLogger())

	req := &model.CanonicalJobRequest{
		JobID:           "job-2",
		MediaKind:       model.MediaKindVideo,
		Prompt:          "ocean waves",
		VendorModel:     "sora2",
		DurationSeconds: 12,
	}
	cost, err := uc.DebitForJob(context.Background(), "acct-1", req)
	if err != nil {
		t.Fatalf("DebitForJob: %v", err)
	}
	// 12s * 0.16/s = 1.92, rounded up
	if cost != 2 {
		t.Fatalf("expected cost 2, got %d", cost)
	}
}

func TestCredits_InsufficientBalance(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.seed("acct-1", 10)
	uc := NewCreditsUseCase(ledger, newTestLogger())

	req := &model.CanonicalJobRequest{
		JobID:       "job-3",
		MediaKind:   model.MediaKindVideo,
		Prompt:      "mountain",
		VendorModel: "kling",
	}
	if _, err := uc.DebitForJob(context.Background(), "acct-1", req); err != domain.ErrInsufficientCredits {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if bal, _ := uc.Balance(context.Background(), "acct-1"); bal != 10 {
		t.Fatalf("failed debit must not change the balance, got %d", bal)
	}
}

func TestCredits_ValidationBeforeLedgerWrite(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.seed("acct-1", 1000)
	uc := NewCreditsUseCase(ledger, newTestLogger())

	cases := []struct {
		name string
		req  *model.CanonicalJobRequest
		want error
	}{
		{"empty prompt", &model.CanonicalJobRequest{JobID: "j", MediaKind: model.MediaKindVideo, VendorModel: "kling"}, domain.ErrInvalidArgument},
		{"unknown model", &model.CanonicalJobRequest{JobID: "j", MediaKind: model.MediaKindVideo, Prompt: "x", VendorModel: "nope"}, domain.ErrUnsupportedModel},
		{"kind mismatch", &model.CanonicalJobRequest{JobID: "j", MediaKind: model.MediaKindImage, Prompt: "x", VendorModel: "kling"}, domain.ErrUnsupportedModel},
		{"missing image", &model.CanonicalJobRequest{JobID: "j", MediaKind: model.MediaKindVideo, Prompt: "x", VendorModel: "gen4_turbo"}, domain.ErrMissingSourceImage},
		{"missing mask", &model.CanonicalJobRequest{JobID: "j", MediaKind: model.MediaKindImage, Prompt: "x", VendorModel: "dall-e-2", SourceImages: []model.SourceImage{{Data: []byte{1}}}}, domain.ErrMissingSourceImage},
	}
	for _, tc := range cases {
		if _, err := uc.DebitForJob(context.Background(), "acct-1", tc.req); err != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
	if bal, _ := uc.Balance(context.Background(), "acct-1"); bal != 1000 {
		t.Fatalf("validation failures wrote to the ledger, balance %d", bal)
	}
}
