package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
	"ai-generation-platform/internal/usecase"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// mockGenUC returns scripted outcomes and records the last request it saw.
type mockGenUC struct {
	outcome   *usecase.GenerationOutcome
	genErr    error
	statusRes adapter.StatusResult
	statusErr error
	records   []*model.GenerationRecord

	lastAccount string
	lastReq     *model.CanonicalJobRequest
}

func (m *mockGenUC) Generate(ctx context.Context, accountID string, req *model.CanonicalJobRequest) (*usecase.GenerationOutcome, error) {
	m.lastAccount = accountID
	m.lastReq = req
	if m.genErr != nil {
		return nil, m.genErr
	}
	return m.outcome, nil
}

func (m *mockGenUC) CheckTask(ctx context.Context, modelName, taskID string) (adapter.StatusResult, error) {
	if m.statusErr != nil {
		return adapter.StatusResult{}, m.statusErr
	}
	return m.statusRes, nil
}

func (m *mockGenUC) ListGenerations(ctx context.Context, accountID string, offset, limit int) ([]*model.GenerationRecord, error) {
	return m.records, nil
}

// mockCreditsUC debits from a fixed balance.
type mockCreditsUC struct {
	balance  int64
	debitErr error

	lastCost int64
}

func (m *mockCreditsUC) DebitForJob(ctx context.Context, accountID string, req *model.CanonicalJobRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	if m.debitErr != nil {
		return 0, m.debitErr
	}
	cost := req.Spec().Cost(req.DurationSeconds)
	if cost > m.balance {
		return 0, domain.ErrInsufficientCredits
	}
	m.balance -= cost
	m.lastCost = cost
	return cost, nil
}

func (m *mockCreditsUC) Balance(ctx context.Context, accountID string) (int64, error) {
	return m.balance, nil
}

func sampleRecords() []*model.GenerationRecord {
	now := time.Now().UTC()
	return []*model.GenerationRecord{
		{
			ID:              "01HZX0000000000000000000A1",
			AccountID:       "acct-1",
			Vendor:          model.VendorKling,
			Model:           "kling",
			MediaKind:       model.MediaKindVideo,
			Prompt:          "a fox in the snow",
			URL:             "https://cdn.example.com/v/a.mp4",
			DurationSeconds: 5,
			AspectRatio:     "16:9",
			CreditsSpent:    50,
			CreatedAt:       now,
		},
		{
			ID:           "01HZX0000000000000000000A2",
			AccountID:    "acct-1",
			Vendor:       model.VendorOpenAI,
			Model:        "dall-e-3",
			MediaKind:    model.MediaKindImage,
			Prompt:       "an isometric city",
			URL:          "https://cdn.example.com/i/b.png",
			CreditsSpent: 13,
			CreatedAt:    now.Add(-time.Hour),
		},
	}
}

// allowAllLimiter / denyLimiter script the rate limit decision.
type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, nil
}
