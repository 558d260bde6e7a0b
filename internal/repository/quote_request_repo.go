package repository

import (
	"context"
	"errors"

	"quotepilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuoteRequestRepository interface {
	Create(ctx context.Context, q *model.QuoteRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.QuoteRequest, error)
	Close(ctx context.Context, id uuid.UUID) error
}

type quoteRequestRepo struct{ db *gorm.DB }

func NewQuoteRequestRepository(db *gorm.DB) QuoteRequestRepository {
	return &quoteRequestRepo{db: db}
}

func (r *quoteRequestRepo) Create(ctx context.Context, q *model.QuoteRequest) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *quoteRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.QuoteRequest, error) {
	var q model.QuoteRequest
	err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &q, err
}

func (r *quoteRequestRepo) Close(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.QuoteRequest{}).
		Where("id = ?", id).
		Update("status", "closed").Error
}
