package repository

import (
	"context"
	"errors"

	"quotepilot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplierRepository interface {
	// UpsertByEmail creates the supplier or refreshes its name — email is the
	// natural key since it is derived deterministically from the name.
	UpsertByEmail(ctx context.Context, s *model.Supplier) error
	FindByEmail(ctx context.Context, email string) (*model.Supplier, error)
	List(ctx context.Context) ([]model.Supplier, error)
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) UpsertByEmail(ctx context.Context, s *model.Supplier) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "active", "updated_at"}),
		}).
		Create(s).Error; err != nil {
		return err
	}
	// OnConflict updates do not refill the struct's ID — reload it.
	var saved model.Supplier
	if err := r.db.WithContext(ctx).Where("email = ?", s.Email).First(&saved).Error; err != nil {
		return err
	}
	*s = saved
	return nil
}

func (r *supplierRepo) FindByEmail(ctx context.Context, email string) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Where("active = true").Order("name").Find(&suppliers).Error
	return suppliers, err
}
