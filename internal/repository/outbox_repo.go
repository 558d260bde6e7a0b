package repository

import (
	"context"
	"errors"
	"time"

	"quotepilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Create(ctx context.Context, m *model.OutboxMessage) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OutboxMessage, error)
	// ListDue returns pending rows whose retry time has arrived (or that have
	// never been attempted), oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	// MarkRetry records a failed attempt and schedules the next one.
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt time.Time, sendErr string) error
	// MarkFailed retires a row permanently after the attempt budget is spent.
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, sendErr string) error
}

type outboxRepo struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepo{db: db} }

func (r *outboxRepo) Create(ctx context.Context, m *model.OutboxMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *outboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OutboxMessage, error) {
	var m model.OutboxMessage
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *outboxRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.OutboxMessage, error) {
	var rows []model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *outboxRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.update(ctx, id, map[string]interface{}{
		"status":  model.OutboxSent,
		"sent_at": &now,
	})
}

func (r *outboxRepo) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt time.Time, sendErr string) error {
	return r.update(ctx, id, map[string]interface{}{
		"attempts":      attempts,
		"next_retry_at": &nextRetryAt,
		"last_error":    &sendErr,
	})
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, sendErr string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        model.OutboxFailed,
		"attempts":      attempts,
		"next_retry_at": nil,
		"last_error":    &sendErr,
	})
}

func (r *outboxRepo) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
