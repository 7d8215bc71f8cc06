package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowFilter narrows workflow request listings
type WorkflowFilter struct {
	StaffID *uuid.UUID
	State   string
	Kind    string
	Page    int
	Limit   int
}

// WorkflowRepository defines data access for workflow requests. FindByIDForUpdate
// takes a row lock so concurrent decisions on the same request serialize; the
// loser of a race re-reads the already-transitioned state.
type WorkflowRepository interface {
	Create(ctx context.Context, req *model.WorkflowRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error)
	List(ctx context.Context, filter WorkflowFilter) ([]model.WorkflowRequest, int64, error)
	Update(ctx context.Context, req *model.WorkflowRequest) error
}

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) Create(ctx context.Context, req *model.WorkflowRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *workflowRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error) {
	var req model.WorkflowRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *workflowRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error) {
	var req model.WorkflowRequest
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *workflowRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error) {
	var req model.WorkflowRequest
	err := GetDB(ctx, r.db).
		Preload("Staff").
		Preload("Staff.Department").
		Preload("SupervisorDecider").
		Preload("HRDecider").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *workflowRepository) List(ctx context.Context, filter WorkflowFilter) ([]model.WorkflowRequest, int64, error) {
	var requests []model.WorkflowRequest
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.StaffID != nil {
			q = q.Where("staff_id = ?", *filter.StaffID)
		}
		if filter.State != "" {
			q = q.Where("state = ?", filter.State)
		}
		if filter.Kind != "" {
			q = q.Where("kind = ?", filter.Kind)
		}
		return q
	}

	if err := apply(db.Model(&model.WorkflowRequest{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := apply(db.Preload("Staff").Preload("SupervisorDecider").Preload("HRDecider")).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *workflowRepository) Update(ctx context.Context, req *model.WorkflowRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}
