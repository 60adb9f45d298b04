package usecase

import (
	"context"
	"errors"
	"testing"

	"ai-generation-platform/internal/domain/model"
)

func TestRefundEngine_CreditsExactAmount(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.seed("acct-1", 100)
	engine := NewRefundEngine(ledger, newTestLogger())

	out := engine.Refund(context.Background(), "acct-1", "job-1", 40, FailureGeneric)

	if !out.Attempted || !out.Succeeded {
		t.Fatalf("expected attempted+succeeded, got %+v", out)
	}
	if out.Amount != 40 {
		t.Fatalf("expected amount 40, got %d", out.Amount)
	}
	if out.NewBalance == nil || *out.NewBalance != 140 {
		t.Fatalf("expected new balance 140, got %v", out.NewBalance)
	}
	if n := ledger.countByType(model.TransactionTypeRefund); n != 1 {
		t.Fatalf("expected 1 refund transaction, got %d", n)
	}
}

func TestRefundEngine_DuplicateJobRefundsOnce(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.seed("acct-1", 100)
	engine := NewRefundEngine(ledger, newTestLogger())

	engine.Refund(context.Background(), "acct-1", "job-1", 40, FailureGeneric)
	engine.Refund(context.Background(), "acct-1", "job-1", 40, FailureModeration)

	if n := ledger.countByType(model.TransactionTypeRefund); n != 1 {
		t.Fatalf("expected exactly 1 refund transaction, got %d", n)
	}
	if bal, _ := ledger.Balance(context.Background(), nil, "acct-1"); bal != 140 {
		t.Fatalf("expected balance 140 after duplicate refund, got %d", bal)
	}
}

func TestRefundEngine_ReferenceTracesToJob(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	engine := NewRefundEngine(ledger, newTestLogger())

	engine.Refund(context.Background(), "acct-2", "01JOBULID", 16, FailureModeration)

	if !ledger.hasRef(model.TransactionTypeRefund, "refund_01JOBULID") {
		t.Fatal("refund transaction does not reference the failed job")
	}
}

func TestRefundEngine_LedgerFailureIsReportedTruthfully(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.creditErr = errors.New("connection refused")
	engine := NewRefundEngine(ledger, newTestLogger())

	out := engine.Refund(context.Background(), "acct-3", "job-9", 50, FailureGeneric)

	if !out.Attempted {
		t.Fatal("expected Attempted to be set")
	}
	if out.Succeeded {
		t.Fatal("Succeeded must not be set when the ledger write failed")
	}
	if out.NewBalance != nil {
		t.Fatalf("expected no balance on failed refund, got %v", out.NewBalance)
	}
}
