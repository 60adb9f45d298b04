package repository

import (
	"context"

	"ai-generation-platform/internal/domain/model"
)

// GenerationRecordRepository stores finished generations for the library view.
type GenerationRecordRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.GenerationRecord) error
	ListByAccount(ctx context.Context, tx Tx, accountID string, offset, limit int) ([]*model.GenerationRecord, error)
}
