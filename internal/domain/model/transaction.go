package model

import "time"

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeDebit    TransactionType = "generation_debit"
	TransactionTypeRefund   TransactionType = "refund"
	TransactionTypeTest     TransactionType = "test"
)

// CreditTransaction is one append-only row in the credit ledger. Negative
// amounts are debits, positive amounts are purchases or refunds. The balance
// of an account is always derived as the sum of its transaction amounts.
type CreditTransaction struct {
	ID          string
	AccountID   string
	Amount      int64
	Type        TransactionType
	Description string
	// ReferenceID ties a transaction to the job attempt that produced it,
	// so the ledger can reject duplicate refunds for the same job.
	ReferenceID string
	CreatedAt   time.Time
}
