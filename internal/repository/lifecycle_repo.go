package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LifecycleRepository covers retirements and bereavement grants
type LifecycleRepository interface {
	CreateRetirement(ctx context.Context, r *model.Retirement) error
	ListRetirements(ctx context.Context, page, limit int) ([]model.Retirement, int64, error)

	CreateBereavement(ctx context.Context, b *model.Bereavement) error
	ListBereavements(ctx context.Context, staffID *uuid.UUID, page, limit int) ([]model.Bereavement, int64, error)
}

type lifecycleRepository struct {
	db *gorm.DB
}

func NewLifecycleRepository(db *gorm.DB) LifecycleRepository {
	return &lifecycleRepository{db: db}
}

func (r *lifecycleRepository) CreateRetirement(ctx context.Context, ret *model.Retirement) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

func (r *lifecycleRepository) ListRetirements(ctx context.Context, page, limit int) ([]model.Retirement, int64, error) {
	var retirements []model.Retirement
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Retirement{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("Staff").Preload("Staff.Department").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&retirements).Error
	if err != nil {
		return nil, 0, err
	}

	return retirements, total, nil
}

func (r *lifecycleRepository) CreateBereavement(ctx context.Context, b *model.Bereavement) error {
	return GetDB(ctx, r.db).Create(b).Error
}

func (r *lifecycleRepository) ListBereavements(ctx context.Context, staffID *uuid.UUID, page, limit int) ([]model.Bereavement, int64, error) {
	var bereavements []model.Bereavement
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Bereavement{})
	if staffID != nil {
		query = query.Where("staff_id = ?", *staffID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Staff")
	if staffID != nil {
		fetch = fetch.Where("staff_id = ?", *staffID)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&bereavements).Error; err != nil {
		return nil, 0, err
	}

	return bereavements, total, nil
}
