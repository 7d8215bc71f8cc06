package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationRepository covers schools and departments
type OrganizationRepository interface {
	CreateSchool(ctx context.Context, school *model.School) error
	GetSchool(ctx context.Context, id uuid.UUID) (*model.School, error)
	GetSchoolByCode(ctx context.Context, code string) (*model.School, error)
	ListSchools(ctx context.Context) ([]model.School, error)
	UpdateSchool(ctx context.Context, school *model.School) error
	DeleteSchool(ctx context.Context, id uuid.UUID) error

	CreateDepartment(ctx context.Context, dept *model.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (*model.Department, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	UpdateDepartment(ctx context.Context, dept *model.Department) error
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) CreateSchool(ctx context.Context, school *model.School) error {
	return GetDB(ctx, r.db).Create(school).Error
}

func (r *organizationRepository) GetSchool(ctx context.Context, id uuid.UUID) (*model.School, error) {
	var school model.School
	if err := GetDB(ctx, r.db).First(&school, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *organizationRepository) GetSchoolByCode(ctx context.Context, code string) (*model.School, error) {
	var school model.School
	if err := GetDB(ctx, r.db).First(&school, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *organizationRepository) ListSchools(ctx context.Context) ([]model.School, error) {
	var schools []model.School
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&schools).Error; err != nil {
		return nil, err
	}
	return schools, nil
}

func (r *organizationRepository) UpdateSchool(ctx context.Context, school *model.School) error {
	return GetDB(ctx, r.db).Save(school).Error
}

func (r *organizationRepository) DeleteSchool(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.School{}).Error
}

func (r *organizationRepository) CreateDepartment(ctx context.Context, dept *model.Department) error {
	return GetDB(ctx, r.db).Create(dept).Error
}

func (r *organizationRepository) GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var dept model.Department
	if err := GetDB(ctx, r.db).Preload("School").First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *organizationRepository) GetDepartmentByCode(ctx context.Context, code string) (*model.Department, error) {
	var dept model.Department
	if err := GetDB(ctx, r.db).First(&dept, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *organizationRepository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	if err := GetDB(ctx, r.db).Preload("School").Order("name ASC").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *organizationRepository) UpdateDepartment(ctx context.Context, dept *model.Department) error {
	return GetDB(ctx, r.db).Save(dept).Error
}

func (r *organizationRepository) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Department{}).Error
}
