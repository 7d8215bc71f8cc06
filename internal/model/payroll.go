package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanType enum constants
const (
	LoanSalaryAdvance = "salary_advance"
	LoanEmergency     = "emergency"
	LoanHousing       = "housing"
)

// LoanStatus enum constants
const (
	LoanActive    = "active"
	LoanCompleted = "completed"
	LoanCancelled = "cancelled"
)

// SalaryStructure maps a (category, grade, employment type) triple to the
// monthly pay components. Exactly one structure exists per triple.
type SalaryStructure struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffCategory      string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_salary_key" json:"staff_category"`
	StaffGrade         string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_salary_key" json:"staff_grade"`
	EmploymentType     string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_salary_key" json:"employment_type"`
	BasicSalary        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"basic_salary"`
	HousingAllowance   decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"housing_allowance"`
	TransportAllowance decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"transport_allowance"`
	MedicalAllowance   decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"medical_allowance"`
	OtherAllowances    decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"other_allowances"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PayrollPeriod is one monthly pay run. A processed period is immutable.
type PayrollPeriod struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"` // e.g. "January 2025"
	StartDate   time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time  `gorm:"type:date;not null" json:"end_date"`
	IsProcessed bool       `gorm:"default:false" json:"is_processed"`
	ProcessedAt *time.Time `json:"processed_at"`
	ProcessedBy *uuid.UUID `gorm:"type:uuid" json:"processed_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Payslip is the computed pay for one staff member in one period.
// Net = Gross - IncomeTax - Nassit - LoanDeductions.
type Payslip struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_payslip_key" json:"staff_id"`
	Staff          *Staff          `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	PeriodID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_payslip_key" json:"period_id"`
	Period         *PayrollPeriod  `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
	BasicSalary    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"basic_salary"`
	Allowances     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"allowances"`
	GrossPay       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"gross_pay"`
	IncomeTax      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"income_tax"`
	NassitDeduction decimal.Decimal `gorm:"column:nassit_deduction;type:decimal(18,4);not null" json:"nassit_deduction"`
	LoanDeductions decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"loan_deductions"`
	NetPay         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"net_pay"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LoanRecord tracks a staff loan repaid through monthly payroll deductions
type LoanRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"staff_id"`
	Staff            *Staff          `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	LoanType         string          `gorm:"type:varchar(20);not null" json:"loan_type"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	InterestRate     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"interest_rate"`
	RepaymentMonths  int             `gorm:"not null" json:"repayment_months"`
	MonthlyDeduction decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"monthly_deduction"`
	Balance          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"balance"`
	Status           string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	ApprovalDate     *time.Time      `gorm:"type:date" json:"approval_date"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LeaveBalance holds the per-year leave entitlements remaining for a staff
// member. Approved leave requests debit the matching balance.
type LeaveBalance struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_leave_balance_key" json:"staff_id"`
	Staff     *Staff    `gorm:"foreignKey:StaffID" json:"-"`
	Year      int       `gorm:"not null;uniqueIndex:idx_leave_balance_key" json:"year"`
	Annual    int       `gorm:"default:21" json:"annual"`
	Sick      int       `gorm:"default:10" json:"sick"`
	Maternity int       `gorm:"default:0" json:"maternity"`
	Paternity int       `gorm:"default:0" json:"paternity"`
	Study     int       `gorm:"default:0" json:"study"`
	Emergency int       `gorm:"default:3" json:"emergency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
