package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffFilter narrows staff listings
type StaffFilter struct {
	Status       string
	DepartmentID *uuid.UUID
	StaffType    string
	Page         int
	Limit        int
}

// StaffRepository defines the interface for data access of Staff entities.
// It doubles as the staff directory for the approval workflow: supervisor
// resolution and the promotion mutation live here.
type StaffRepository interface {
	Create(ctx context.Context, staff *model.Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	GetByStaffNumber(ctx context.Context, staffNumber string) (*model.Staff, error)
	List(ctx context.Context, filter StaffFilter) ([]model.Staff, int64, error)
	Update(ctx context.Context, staff *model.Staff) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindHeadOfDepartment(ctx context.Context, departmentID uuid.UUID) (*model.Staff, error)
	ApplyPromotion(ctx context.Context, staffID uuid.UUID, position string, departmentID uuid.UUID, grade string) error
	SetStatus(ctx context.Context, staffID uuid.UUID, status string) error
}

type staffRepository struct {
	db *gorm.DB
}

// NewStaffRepository returns a new instance of StaffRepository
func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Create(ctx context.Context, staff *model.Staff) error {
	return GetDB(ctx, r.db).Create(staff).Error
}

func (r *staffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var staff model.Staff
	if err := GetDB(ctx, r.db).Preload("Department").First(&staff, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) GetByStaffNumber(ctx context.Context, staffNumber string) (*model.Staff, error) {
	var staff model.Staff
	if err := GetDB(ctx, r.db).First(&staff, "staff_number = ?", staffNumber).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]model.Staff, int64, error) {
	var staff []model.Staff
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Staff{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.StaffType != "" {
		query = query.Where("staff_type = ?", filter.StaffType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Department").Preload("Department.School").
		Order("last_name ASC, first_name ASC").
		Offset(offset).Limit(filter.Limit).
		Find(&staff).Error; err != nil {
		return nil, 0, err
	}

	return staff, total, nil
}

func (r *staffRepository) Update(ctx context.Context, staff *model.Staff) error {
	return GetDB(ctx, r.db).Save(staff).Error
}

func (r *staffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Staff{}).Error
}

// FindHeadOfDepartment returns the active head of the given department, used
// as the fallback supervisor when a staff member has none assigned.
func (r *staffRepository) FindHeadOfDepartment(ctx context.Context, departmentID uuid.UUID) (*model.Staff, error) {
	var head model.Staff
	err := GetDB(ctx, r.db).
		Where("department_id = ? AND leadership_role = ? AND status = ?",
			departmentID, model.LeadershipHeadOfDept, model.StaffStatusActive).
		First(&head).Error
	if err != nil {
		return nil, err
	}
	return &head, nil
}

// ApplyPromotion overwrites position, department and grade in one update.
// Callers run it inside the transaction that flips the request state so the
// two commit or roll back together.
func (r *staffRepository) ApplyPromotion(ctx context.Context, staffID uuid.UUID, position string, departmentID uuid.UUID, grade string) error {
	result := GetDB(ctx, r.db).Model(&model.Staff{}).
		Where("id = ? AND status = ?", staffID, model.StaffStatusActive).
		Updates(map[string]interface{}{
			"position":      position,
			"department_id": departmentID,
			"staff_grade":   grade,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *staffRepository) SetStatus(ctx context.Context, staffID uuid.UUID, status string) error {
	result := GetDB(ctx, r.db).Model(&model.Staff{}).
		Where("id = ?", staffID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
