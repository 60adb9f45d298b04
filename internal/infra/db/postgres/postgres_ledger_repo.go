package postgres

import (
	"time"

	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/repository"
)

var _ repository.CreditLedger = (*ledgerRepo)(nil)

// ledgerRepo persists the append-only credit_transactions table. A unique
// index on (type, reference_id) makes repeated refunds for the same job
// no-ops instead of double credits.
type ledgerRepo struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *ledgerRepo {
	return &ledgerRepo{pool: pool}
}

func (r *ledgerRepo) Credit(ctx context.Context, tx repository.Tx, t *model.CreditTransaction) error {
	if t.Amount <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO credit_transactions (id, account_id, amount, type, description, reference_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (type, reference_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.AccountID, t.Amount, t.Type, t.Description, t.ReferenceID, createdAt(t))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ledgerRepo) Debit(ctx context.Context, tx repository.Tx, t *model.CreditTransaction) error {
	if t.Amount >= 0 {
		return domain.ErrInvalidArgument
	}
	// The balance guard and the insert run as one statement so concurrent
	// debits cannot both observe the same balance and overdraw.
	const q = `
INSERT INTO credit_transactions (id, account_id, amount, type, description, reference_id, created_at)
SELECT $1,$2,$3,$4,$5,$6,$7
 WHERE COALESCE((SELECT SUM(amount) FROM credit_transactions WHERE account_id=$2),0) >= -$3::bigint;`

	cmd, err := execSQL(ctx, r.pool, tx, q, t.ID, t.AccountID, t.Amount, t.Type, t.Description, t.ReferenceID, createdAt(t))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInsufficientCredits
	}
	return nil
}

func (r *ledgerRepo) Balance(ctx context.Context, tx repository.Tx, accountID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM credit_transactions WHERE account_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, accountID)
	if err != nil {
		return 0, err
	}

	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func createdAt(t *model.CreditTransaction) time.Time {
	if t.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return t.CreatedAt
}
