package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PerformanceRepository covers reviews and their goals
type PerformanceRepository interface {
	CreateReview(ctx context.Context, review *model.PerformanceReview) error
	GetReview(ctx context.Context, id uuid.UUID) (*model.PerformanceReview, error)
	ListReviews(ctx context.Context, staffID *uuid.UUID, status string, page, limit int) ([]model.PerformanceReview, int64, error)
	UpdateReview(ctx context.Context, review *model.PerformanceReview) error

	CreateGoal(ctx context.Context, goal *model.PerformanceGoal) error
	GetGoal(ctx context.Context, id uuid.UUID) (*model.PerformanceGoal, error)
	ListGoals(ctx context.Context, reviewID uuid.UUID) ([]model.PerformanceGoal, error)
	UpdateGoal(ctx context.Context, goal *model.PerformanceGoal) error
}

type performanceRepository struct {
	db *gorm.DB
}

func NewPerformanceRepository(db *gorm.DB) PerformanceRepository {
	return &performanceRepository{db: db}
}

func (r *performanceRepository) CreateReview(ctx context.Context, review *model.PerformanceReview) error {
	return GetDB(ctx, r.db).Create(review).Error
}

func (r *performanceRepository) GetReview(ctx context.Context, id uuid.UUID) (*model.PerformanceReview, error) {
	var review model.PerformanceReview
	err := GetDB(ctx, r.db).
		Preload("Staff").Preload("Supervisor").
		First(&review, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *performanceRepository) ListReviews(ctx context.Context, staffID *uuid.UUID, status string, page, limit int) ([]model.PerformanceReview, int64, error) {
	var reviews []model.PerformanceReview
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PerformanceReview{})
	if staffID != nil {
		query = query.Where("staff_id = ?", *staffID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Staff").Preload("Supervisor")
	if staffID != nil {
		fetch = fetch.Where("staff_id = ?", *staffID)
	}
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Order("scheduled_date DESC").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *performanceRepository) UpdateReview(ctx context.Context, review *model.PerformanceReview) error {
	return GetDB(ctx, r.db).Save(review).Error
}

func (r *performanceRepository) CreateGoal(ctx context.Context, goal *model.PerformanceGoal) error {
	return GetDB(ctx, r.db).Create(goal).Error
}

func (r *performanceRepository) GetGoal(ctx context.Context, id uuid.UUID) (*model.PerformanceGoal, error) {
	var goal model.PerformanceGoal
	if err := GetDB(ctx, r.db).First(&goal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *performanceRepository) ListGoals(ctx context.Context, reviewID uuid.UUID) ([]model.PerformanceGoal, error) {
	var goals []model.PerformanceGoal
	if err := GetDB(ctx, r.db).Where("review_id = ?", reviewID).Order("target_date ASC").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *performanceRepository) UpdateGoal(ctx context.Context, goal *model.PerformanceGoal) error {
	return GetDB(ctx, r.db).Save(goal).Error
}
