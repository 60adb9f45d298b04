package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/repository"
)

var _ repository.GenerationRecordRepository = (*generationRepo)(nil)

type generationRepo struct{ pool *pgxpool.Pool }

func NewGenerationRepo(pool *pgxpool.Pool) *generationRepo {
	return &generationRepo{pool: pool}
}

func (r *generationRepo) Save(ctx context.Context, tx repository.Tx, rec *model.GenerationRecord) error {
	const q = `
INSERT INTO generations (
  id, account_id, vendor, model, media_kind, prompt, url, duration_seconds, aspect_ratio, credits_spent, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO NOTHING;`

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.AccountID, rec.Vendor, rec.Model, rec.MediaKind, rec.Prompt, rec.URL, rec.DurationSeconds, rec.AspectRatio, rec.CreditsSpent, created)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *generationRepo) ListByAccount(ctx context.Context, tx repository.Tx, accountID string, offset, limit int) ([]*model.GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, account_id, vendor, model, media_kind, prompt, url, duration_seconds, aspect_ratio, credits_spent, created_at
  FROM generations
 WHERE account_id=$1
 ORDER BY created_at DESC
 OFFSET $2 LIMIT $3;`

	rows, err := queryRows(ctx, r.pool, tx, q, accountID, offset, limit)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, domain.ErrNotFound
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.GenerationRecord
	for rows.Next() {
		rec := new(model.GenerationRecord)
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Vendor, &rec.Model, &rec.MediaKind, &rec.Prompt, &rec.URL, &rec.DurationSeconds, &rec.AspectRatio, &rec.CreditsSpent, &rec.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	return out, nil
}
