package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ CreditsUseCase = (*creditsUC)(nil)

// CreditsUseCase owns the debit that precedes a generation job and balance
// reads. The orchestrator treats the debit as an external precondition; this
// keeps the refund path the only ledger write the orchestrator performs.
type CreditsUseCase interface {
	// DebitForJob validates the request, computes the model's cost, and
	// appends the generation debit. Validation failures happen before any
	// ledger write, so a rejected request never needs a refund.
	DebitForJob(ctx context.Context, accountID string, req *model.CanonicalJobRequest) (int64, error)
	Balance(ctx context.Context, accountID string) (int64, error)
}

type creditsUC struct {
	ledger repository.CreditLedger
	log    *zerolog.Logger
}

func NewCreditsUseCase(ledger repository.CreditLedger, log *zerolog.Logger) *creditsUC {
	return &creditsUC{ledger: ledger, log: log}
}

func (u *creditsUC) DebitForJob(ctx context.Context, accountID string, req *model.CanonicalJobRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	cost := req.Spec().Cost(req.DurationSeconds)

	t := &model.CreditTransaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      -cost,
		Type:        model.TransactionTypeDebit,
		Description: "Generation debit: " + req.VendorModel,
		ReferenceID: req.JobID,
		CreatedAt:   time.Now(),
	}
	if err := u.ledger.Debit(ctx, nil, t); err != nil {
		return 0, err
	}
	u.log.Debug().
		Str("account_id", accountID).
		Str("job_id", req.JobID).
		Int64("cost", cost).
		Str("model", req.VendorModel).
		Msg("credits debited for generation")
	return cost, nil
}

func (u *creditsUC) Balance(ctx context.Context, accountID string) (int64, error) {
	return u.ledger.Balance(ctx, nil, accountID)
}
