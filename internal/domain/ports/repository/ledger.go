package repository

import (
	"context"

	"ai-generation-platform/internal/domain/model"
)

// CreditLedger is the append-only transaction log for account credits. The
// ledger owns atomicity: concurrent credits and debits against one account
// must not lose updates, and a reference id may appear at most once per
// transaction type (this is what makes refund re-invocation idempotent).
type CreditLedger interface {
	// Credit appends a positive transaction (purchase or refund).
	Credit(ctx context.Context, tx Tx, t *model.CreditTransaction) error
	// Debit appends a negative transaction after verifying the balance
	// covers it; returns domain.ErrInsufficientCredits otherwise.
	Debit(ctx context.Context, tx Tx, t *model.CreditTransaction) error
	// Balance derives the account balance as the sum of its transactions.
	Balance(ctx context.Context, tx Tx, accountID string) (int64, error)
}
