package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayrollRepository covers salary structures, pay periods, payslips and loans
type PayrollRepository interface {
	UpsertSalaryStructure(ctx context.Context, s *model.SalaryStructure) error
	FindSalaryStructure(ctx context.Context, category, grade, employmentType string) (*model.SalaryStructure, error)
	ListSalaryStructures(ctx context.Context) ([]model.SalaryStructure, error)

	CreatePeriod(ctx context.Context, p *model.PayrollPeriod) error
	GetPeriod(ctx context.Context, id uuid.UUID) (*model.PayrollPeriod, error)
	GetPeriodForUpdate(ctx context.Context, id uuid.UUID) (*model.PayrollPeriod, error)
	ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error)
	UpdatePeriod(ctx context.Context, p *model.PayrollPeriod) error

	CreatePayslip(ctx context.Context, p *model.Payslip) error
	ListPayslipsForPeriod(ctx context.Context, periodID uuid.UUID) ([]model.Payslip, error)
	ListPayslipsForStaff(ctx context.Context, staffID uuid.UUID, page, limit int) ([]model.Payslip, int64, error)

	CreateLoan(ctx context.Context, l *model.LoanRecord) error
	ListActiveLoansForStaff(ctx context.Context, staffID uuid.UUID) ([]model.LoanRecord, error)
	ListLoans(ctx context.Context, staffID *uuid.UUID, page, limit int) ([]model.LoanRecord, int64, error)
	UpdateLoan(ctx context.Context, l *model.LoanRecord) error
}

type payrollRepository struct {
	db *gorm.DB
}

func NewPayrollRepository(db *gorm.DB) PayrollRepository {
	return &payrollRepository{db: db}
}

func (r *payrollRepository) UpsertSalaryStructure(ctx context.Context, s *model.SalaryStructure) error {
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "staff_category"}, {Name: "staff_grade"}, {Name: "employment_type"}},
			UpdateAll: true,
		}).
		Create(s).Error
}

func (r *payrollRepository) FindSalaryStructure(ctx context.Context, category, grade, employmentType string) (*model.SalaryStructure, error) {
	var s model.SalaryStructure
	err := GetDB(ctx, r.db).
		First(&s, "staff_category = ? AND staff_grade = ? AND employment_type = ?", category, grade, employmentType).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *payrollRepository) ListSalaryStructures(ctx context.Context) ([]model.SalaryStructure, error) {
	var structures []model.SalaryStructure
	if err := GetDB(ctx, r.db).Order("staff_category ASC, staff_grade ASC").Find(&structures).Error; err != nil {
		return nil, err
	}
	return structures, nil
}

func (r *payrollRepository) CreatePeriod(ctx context.Context, p *model.PayrollPeriod) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *payrollRepository) GetPeriod(ctx context.Context, id uuid.UUID) (*model.PayrollPeriod, error) {
	var p model.PayrollPeriod
	if err := GetDB(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPeriodForUpdate locks the period row so two concurrent pay runs cannot
// both observe is_processed = false.
func (r *payrollRepository) GetPeriodForUpdate(ctx context.Context, id uuid.UUID) (*model.PayrollPeriod, error) {
	var p model.PayrollPeriod
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *payrollRepository) ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error) {
	var periods []model.PayrollPeriod
	if err := GetDB(ctx, r.db).Order("start_date DESC").Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

func (r *payrollRepository) UpdatePeriod(ctx context.Context, p *model.PayrollPeriod) error {
	return GetDB(ctx, r.db).Save(p).Error
}

func (r *payrollRepository) CreatePayslip(ctx context.Context, p *model.Payslip) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *payrollRepository) ListPayslipsForPeriod(ctx context.Context, periodID uuid.UUID) ([]model.Payslip, error) {
	var slips []model.Payslip
	err := GetDB(ctx, r.db).
		Preload("Staff").Preload("Staff.Department").
		Where("period_id = ?", periodID).
		Find(&slips).Error
	if err != nil {
		return nil, err
	}
	return slips, nil
}

func (r *payrollRepository) ListPayslipsForStaff(ctx context.Context, staffID uuid.UUID, page, limit int) ([]model.Payslip, int64, error) {
	var slips []model.Payslip
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Payslip{}).Where("staff_id = ?", staffID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("Period").
		Where("staff_id = ?", staffID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&slips).Error
	if err != nil {
		return nil, 0, err
	}

	return slips, total, nil
}

func (r *payrollRepository) CreateLoan(ctx context.Context, l *model.LoanRecord) error {
	return GetDB(ctx, r.db).Create(l).Error
}

func (r *payrollRepository) ListActiveLoansForStaff(ctx context.Context, staffID uuid.UUID) ([]model.LoanRecord, error) {
	var loans []model.LoanRecord
	err := GetDB(ctx, r.db).
		Where("staff_id = ? AND status = ?", staffID, model.LoanActive).
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *payrollRepository) ListLoans(ctx context.Context, staffID *uuid.UUID, page, limit int) ([]model.LoanRecord, int64, error) {
	var loans []model.LoanRecord
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.LoanRecord{})
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
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&loans).Error; err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

func (r *payrollRepository) UpdateLoan(ctx context.Context, l *model.LoanRecord) error {
	return GetDB(ctx, r.db).Save(l).Error
}
