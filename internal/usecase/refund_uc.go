package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/repository"
	"ai-generation-platform/internal/infra/metrics"
)

// RefundOutcome reports truthfully what happened to the compensating credit.
// The HTTP response must never claim a refund succeeded when the ledger call
// failed, so Succeeded is set only after the ledger accepted the transaction.
type RefundOutcome struct {
	Attempted  bool
	Succeeded  bool
	Amount     int64
	NewBalance *int64
}

// RefundEngine issues exactly one compensating credit per failed job. The
// classification changes the transaction description and the user-facing
// message, never whether the refund happens.
type RefundEngine struct {
	ledger repository.CreditLedger
	log    *zerolog.Logger
}

func NewRefundEngine(ledger repository.CreditLedger, log *zerolog.Logger) *RefundEngine {
	return &RefundEngine{ledger: ledger, log: log}
}

// Refund credits amount back to accountID for the failed job. The reference
// id embeds the job id so the ledger can reject a duplicate refund if the
// path is ever re-invoked for the same job. A ledger failure is logged and
// reported, not retried.
func (e *RefundEngine) Refund(ctx context.Context, accountID, jobID string, amount int64, category FailureCategory) RefundOutcome {
	out := RefundOutcome{Attempted: true, Amount: amount}

	desc := "Credit refund for failed generation"
	if category == FailureModeration {
		desc = "Credit refund: generation rejected by content moderation"
	}

	t := &model.CreditTransaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      amount,
		Type:        model.TransactionTypeRefund,
		Description: desc,
		ReferenceID: "refund_" + jobID,
		CreatedAt:   time.Now(),
	}

	if err := e.ledger.Credit(ctx, nil, t); err != nil {
		e.log.Error().Err(err).
			Str("account_id", accountID).
			Str("job_id", jobID).
			Int64("amount", amount).
			Msg("refund transaction failed, needs manual reconciliation")
		metrics.IncRefund(false)
		return out
	}
	out.Succeeded = true
	metrics.IncRefund(true)
	metrics.AddRefundedCredits(amount)

	if bal, err := e.ledger.Balance(ctx, nil, accountID); err == nil {
		out.NewBalance = &bal
	} else {
		e.log.Warn().Err(err).Str("account_id", accountID).Msg("balance lookup after refund failed")
	}

	e.log.Info().
		Str("account_id", accountID).
		Str("job_id", jobID).
		Int64("amount", amount).
		Str("category", string(category)).
		Msg("credits refunded")
	return out
}
