package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/repository"
	"ai-generation-platform/internal/infra/metrics"
	red "ai-generation-platform/internal/infra/redis"
)

var _ repository.CreditLedger = (*ledgerCacheDecorator)(nil)

// ledgerCacheDecorator caches balances. Writes go straight through and drop
// the cached value, so a stale balance can survive at most one TTL after an
// external writer touches the table.
type ledgerCacheDecorator struct {
	inner repository.CreditLedger
	cache red.RedisClient
	ttl   time.Duration
}

func NewLedgerCacheDecorator(inner repository.CreditLedger, cache red.RedisClient) repository.CreditLedger {
	return &ledgerCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   5 * time.Minute,
	}
}

func balanceKey(accountID string) string {
	return fmt.Sprintf("credit_balance:%s", accountID)
}

func (d *ledgerCacheDecorator) Credit(ctx context.Context, tx repository.Tx, t *model.CreditTransaction) error {
	if err := d.inner.Credit(ctx, tx, t); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, balanceKey(t.AccountID))
	return nil
}

func (d *ledgerCacheDecorator) Debit(ctx context.Context, tx repository.Tx, t *model.CreditTransaction) error {
	if err := d.inner.Debit(ctx, tx, t); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, balanceKey(t.AccountID))
	return nil
}

func (d *ledgerCacheDecorator) Balance(ctx context.Context, tx repository.Tx, accountID string) (int64, error) {
	// Transactional reads must see the row state inside the tx, not a cache.
	if tx != nil {
		return d.inner.Balance(ctx, tx, accountID)
	}

	key := balanceKey(accountID)
	if val, err := d.cache.Get(ctx, key); err == nil {
		if sum, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			metrics.IncCacheRequest("balance", "hit")
			return sum, nil
		}
	}

	metrics.IncCacheRequest("balance", "miss")
	sum, err := d.inner.Balance(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}
	_ = d.cache.Set(ctx, key, strconv.FormatInt(sum, 10), d.ttl)
	return sum, nil
}
