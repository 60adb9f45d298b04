// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
	"ai-generation-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// memLedger is a small in-memory credit ledger used by unit tests. It
// enforces the same rules as the Postgres ledger: balance-guarded debits and
// at most one transaction per (type, reference id).
type memLedger struct {
	mu        sync.Mutex
	entries   []*model.CreditTransaction
	creditErr error // simulate a failing refund write
	debitErr  error
}

func newMemLedger() *memLedger { return &memLedger{} }

func (m *memLedger) seed(accountID string, amount int64) {
	m.entries = append(m.entries, &model.CreditTransaction{
		AccountID: accountID,
		Amount:    amount,
		Type:      model.TransactionTypeTest,
	})
}

func (m *memLedger) hasRef(typ model.TransactionType, ref string) bool {
	for _, e := range m.entries {
		if e.Type == typ && e.ReferenceID == ref {
			return true
		}
	}
	return false
}

func (m *memLedger) Credit(ctx context.Context, tx repository.Tx, t *model.CreditTransaction) error {
	if m.creditErr != nil {
		return m.creditErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasRef(t.Type, t.ReferenceID) {
		return nil // duplicate reference, no-op like the SQL ON CONFLICT
	}
	cp := *t
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedger) Debit(ctx context.Context, tx repository.Tx, t *model.CreditTransaction) error {
	if m.debitErr != nil {
		return m.debitErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balanceLocked(t.AccountID)+t.Amount < 0 {
		return domain.ErrInsufficientCredits
	}
	cp := *t
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedger) balanceLocked(accountID string) int64 {
	var sum int64
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}
	return sum
}

func (m *memLedger) Balance(ctx context.Context, tx repository.Tx, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(accountID), nil
}

func (m *memLedger) countByType(typ model.TransactionType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// memRecords collects saved generation records.
type memRecords struct {
	mu      sync.Mutex
	saved   []*model.GenerationRecord
	saveErr error
}

func newMemRecords() *memRecords { return &memRecords{} }

func (m *memRecords) Save(ctx context.Context, tx repository.Tx, rec *model.GenerationRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.saved = append(m.saved, &cp)
	return nil
}

func (m *memRecords) ListByAccount(ctx context.Context, tx repository.Tx, accountID string, offset, limit int) ([]*model.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GenerationRecord
	for _, rec := range m.saved {
		if rec.AccountID == accountID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeProvider scripts one vendor: a fixed Submit result and a sequence of
// status answers returned in order, repeating the last one when exhausted.
type fakeProvider struct {
	vendor    model.Vendor
	sub       adapter.Submission
	submitErr error

	mu       sync.Mutex
	statuses []statusStep
	checks   int
}

type statusStep struct {
	res adapter.StatusResult
	err error
}

func (f *fakeProvider) Vendor() model.Vendor { return f.vendor }

func (f *fakeProvider) Submit(ctx context.Context, req *model.CanonicalJobRequest) (adapter.Submission, error) {
	if f.submitErr != nil {
		return adapter.Submission{}, f.submitErr
	}
	return f.sub, nil
}

func (f *fakeProvider) CheckStatus(ctx context.Context, sub adapter.Submission) (adapter.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.checks
	f.checks++
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	if idx < 0 {
		return adapter.StatusResult{State: adapter.StatusPending}, nil
	}
	step := f.statuses[idx]
	return step.res, step.err
}

// fixedResolver returns the same adapter for every vendor.
type fixedResolver struct {
	prov adapter.ProviderAdapter
	err  error
}

func (r *fixedResolver) Resolve(vendor model.Vendor) (adapter.ProviderAdapter, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.prov, nil
}

// fastPoller polls without sleeping.
func fastPoller() *Poller {
	p := NewPoller(time.Millisecond, newTestLogger())
	p.sleep = func(ctx context.Context, d time.Duration) {}
	return p
}
