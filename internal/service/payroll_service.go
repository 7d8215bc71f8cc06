package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NASSIT employee contribution: 5% of basic salary
var nassitRate = decimal.NewFromFloat(0.05)

// Monthly PAYE bands in leones. Income inside a band is taxed at the band
// rate; the first band is tax free.
var payeBands = []struct {
	UpTo decimal.Decimal // exclusive upper bound; zero means unbounded
	Rate decimal.Decimal
}{
	{decimal.NewFromInt(600_000), decimal.Zero},
	{decimal.NewFromInt(1_200_000), decimal.NewFromFloat(0.15)},
	{decimal.NewFromInt(1_800_000), decimal.NewFromFloat(0.20)},
	{decimal.NewFromInt(2_400_000), decimal.NewFromFloat(0.25)},
	{decimal.Zero, decimal.NewFromFloat(0.30)},
}

// ComputePayslip derives one staff member's pay from their salary structure
// and active loans. Pure function: callers supply everything it reads.
//
//	gross  = basic + all allowances
//	nassit = 5% of basic
//	tax    = progressive PAYE over (gross - nassit)
//	net    = gross - nassit - tax - loan deductions
func ComputePayslip(structure *model.SalaryStructure, activeLoans []model.LoanRecord) model.Payslip {
	allowances := structure.HousingAllowance.
		Add(structure.TransportAllowance).
		Add(structure.MedicalAllowance).
		Add(structure.OtherAllowances)
	gross := structure.BasicSalary.Add(allowances)

	nassit := structure.BasicSalary.Mul(nassitRate)
	tax := computePAYE(gross.Sub(nassit))

	loanDeductions := decimal.Zero
	for _, loan := range activeLoans {
		// Never deduct more than the outstanding balance on the final instalment
		deduction := loan.MonthlyDeduction
		if deduction.GreaterThan(loan.Balance) {
			deduction = loan.Balance
		}
		loanDeductions = loanDeductions.Add(deduction)
	}

	return model.Payslip{
		BasicSalary:     structure.BasicSalary,
		Allowances:      allowances,
		GrossPay:        gross,
		IncomeTax:       tax,
		NassitDeduction: nassit,
		LoanDeductions:  loanDeductions,
		NetPay:          gross.Sub(nassit).Sub(tax).Sub(loanDeductions),
	}
}

func computePAYE(taxable decimal.Decimal) decimal.Decimal {
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	tax := decimal.Zero
	lower := decimal.Zero
	for _, band := range payeBands {
		if band.UpTo.IsZero() {
			// Top band: everything above the last bound
			tax = tax.Add(taxable.Sub(lower).Mul(band.Rate))
			break
		}
		if taxable.LessThanOrEqual(band.UpTo) {
			tax = tax.Add(taxable.Sub(lower).Mul(band.Rate))
			break
		}
		tax = tax.Add(band.UpTo.Sub(lower).Mul(band.Rate))
		lower = band.UpTo
	}
	return tax
}

// DTOs for request validation
type SalaryStructureRequest struct {
	StaffCategory      string          `json:"staff_category" binding:"required,oneof=senior senior_supporting junior"`
	StaffGrade         string          `json:"staff_grade" binding:"required"`
	EmploymentType     string          `json:"employment_type" binding:"required,oneof=full_time part_time"`
	BasicSalary        decimal.Decimal `json:"basic_salary" binding:"required"`
	HousingAllowance   decimal.Decimal `json:"housing_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`
	MedicalAllowance   decimal.Decimal `json:"medical_allowance"`
	OtherAllowances    decimal.Decimal `json:"other_allowances"`
}

type CreatePeriodRequest struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

type CreateLoanRequest struct {
	StaffID         string          `json:"staff_id" binding:"required"`
	LoanType        string          `json:"loan_type" binding:"required,oneof=salary_advance emergency housing"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	RepaymentMonths int             `json:"repayment_months" binding:"required,min=1"`
}

type ProcessPeriodResult struct {
	PeriodID  string   `json:"period_id"`
	Processed int      `json:"processed"`
	Skipped   []string `json:"skipped,omitempty"` // staff numbers without a salary structure
}

// PayrollService defines business logic for salary structures, pay runs and loans
type PayrollService interface {
	UpsertSalaryStructure(ctx context.Context, req SalaryStructureRequest) (*model.SalaryStructure, error)
	ListSalaryStructures(ctx context.Context) ([]model.SalaryStructure, error)

	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*model.PayrollPeriod, error)
	ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error)
	ProcessPeriod(ctx context.Context, periodID, actorUserID string) (*ProcessPeriodResult, error)
	ListPayslipsForPeriod(ctx context.Context, periodID string) ([]model.Payslip, error)
	ListPayslipsForStaff(ctx context.Context, staffID string, page, limit int) ([]model.Payslip, int64, error)

	CreateLoan(ctx context.Context, actorUserID string, req CreateLoanRequest) (*model.LoanRecord, error)
	ListLoans(ctx context.Context, staffID string, page, limit int) ([]model.LoanRecord, int64, error)
}

type payrollService struct {
	txm      repository.TransactionManager
	repo     repository.PayrollRepository
	staff    repository.StaffRepository
	accounts AccountDirectory
	audit    AuditTrail
	notifier WorkflowNotifier
}

// NewPayrollService returns a new instance of PayrollService
func NewPayrollService(
	txm repository.TransactionManager,
	repo repository.PayrollRepository,
	staff repository.StaffRepository,
	accounts AccountDirectory,
	audit AuditTrail,
	notifier WorkflowNotifier,
) PayrollService {
	return &payrollService{txm: txm, repo: repo, staff: staff, accounts: accounts, audit: audit, notifier: notifier}
}

func (s *payrollService) UpsertSalaryStructure(ctx context.Context, req SalaryStructureRequest) (*model.SalaryStructure, error) {
	if req.BasicSalary.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("basic_salary must be positive")
	}
	structure := &model.SalaryStructure{
		StaffCategory:      req.StaffCategory,
		StaffGrade:         req.StaffGrade,
		EmploymentType:     req.EmploymentType,
		BasicSalary:        req.BasicSalary,
		HousingAllowance:   req.HousingAllowance,
		TransportAllowance: req.TransportAllowance,
		MedicalAllowance:   req.MedicalAllowance,
		OtherAllowances:    req.OtherAllowances,
	}
	if err := s.repo.UpsertSalaryStructure(ctx, structure); err != nil {
		return nil, err
	}
	return structure, nil
}

func (s *payrollService) ListSalaryStructures(ctx context.Context) ([]model.SalaryStructure, error) {
	return s.repo.ListSalaryStructures(ctx)
}

func (s *payrollService) CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*model.PayrollPeriod, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if end.Before(start) {
		return nil, errors.New("end_date must not be before start_date")
	}
	period := &model.PayrollPeriod{Name: req.Name, StartDate: start, EndDate: end}
	if err := s.repo.CreatePeriod(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *payrollService) ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error) {
	return s.repo.ListPeriods(ctx)
}

// ProcessPeriod runs payroll for every active staff member. The period row is
// locked for the duration, so two concurrent runs serialize and the loser
// sees the period already processed. Loan balances are reduced as part of the
// same transaction.
func (s *payrollService) ProcessPeriod(ctx context.Context, periodID, actorUserID string) (*ProcessPeriodResult, error) {
	pid, err := uuid.Parse(periodID)
	if err != nil {
		return nil, errors.New("invalid period id")
	}
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return nil, errors.New("invalid actor id")
	}

	result := &ProcessPeriodResult{PeriodID: periodID}
	var payslips []model.Payslip

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		period, findErr := s.repo.GetPeriodForUpdate(txCtx, pid)
		if findErr != nil {
			return errors.New("payroll period not found")
		}
		if period.IsProcessed {
			return fmt.Errorf("period %s has already been processed", period.Name)
		}

		staffList, _, listErr := s.staff.List(txCtx, repository.StaffFilter{
			Status: model.StaffStatusActive,
			Page:   1,
			Limit:  100000,
		})
		if listErr != nil {
			return listErr
		}

		for i := range staffList {
			member := &staffList[i]

			structure, structErr := s.repo.FindSalaryStructure(txCtx, member.StaffCategory, member.StaffGrade, member.EmploymentType)
			if structErr != nil {
				result.Skipped = append(result.Skipped, member.StaffNumber)
				continue
			}

			loans, loanErr := s.repo.ListActiveLoansForStaff(txCtx, member.ID)
			if loanErr != nil {
				return loanErr
			}

			payslip := ComputePayslip(structure, loans)
			payslip.StaffID = member.ID
			payslip.PeriodID = period.ID
			if createErr := s.repo.CreatePayslip(txCtx, &payslip); createErr != nil {
				return fmt.Errorf("failed to create payslip for %s: %w", member.StaffNumber, createErr)
			}
			payslips = append(payslips, payslip)

			for j := range loans {
				loan := &loans[j]
				deduction := loan.MonthlyDeduction
				if deduction.GreaterThan(loan.Balance) {
					deduction = loan.Balance
				}
				loan.Balance = loan.Balance.Sub(deduction)
				if loan.Balance.LessThanOrEqual(decimal.Zero) {
					loan.Status = model.LoanCompleted
				}
				if updateErr := s.repo.UpdateLoan(txCtx, loan); updateErr != nil {
					return updateErr
				}
			}
		}

		now := time.Now()
		period.IsProcessed = true
		period.ProcessedAt = &now
		period.ProcessedBy = &actorID
		if updateErr := s.repo.UpdatePeriod(txCtx, period); updateErr != nil {
			return updateErr
		}

		details, _ := json.Marshal(map[string]interface{}{
			"period":    period.Name,
			"processed": len(payslips),
			"skipped":   len(result.Skipped),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionProcessPayroll,
			EntityID:   period.ID.String(),
			EntityName: period.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	// Payslips are committed; tell each staff member with an account
	for i := range payslips {
		if recipient, findErr := s.accounts.GetByStaffID(ctx, payslips[i].StaffID); findErr == nil {
			s.notifier.NotifyUser(ctx, recipient.ID, model.NotifyPayslipReady,
				"Payslip Available",
				fmt.Sprintf("Your payslip for %s is ready. Net pay: %s", periodName(payslips[i]), payslips[i].NetPay.StringFixed(2)),
				&payslips[i].ID)
		}
	}

	result.Processed = len(payslips)
	return result, nil
}

func periodName(p model.Payslip) string {
	if p.Period != nil {
		return p.Period.Name
	}
	return "the latest pay period"
}

func (s *payrollService) ListPayslipsForPeriod(ctx context.Context, periodID string) ([]model.Payslip, error) {
	pid, err := uuid.Parse(periodID)
	if err != nil {
		return nil, errors.New("invalid period id")
	}
	return s.repo.ListPayslipsForPeriod(ctx, pid)
}

func (s *payrollService) ListPayslipsForStaff(ctx context.Context, staffID string, page, limit int) ([]model.Payslip, int64, error) {
	sid, err := uuid.Parse(staffID)
	if err != nil {
		return nil, 0, errors.New("invalid staff id")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListPayslipsForStaff(ctx, sid, page, limit)
}

func (s *payrollService) CreateLoan(ctx context.Context, actorUserID string, req CreateLoanRequest) (*model.LoanRecord, error) {
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return nil, errors.New("invalid actor id")
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, errors.New("staff member not found")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("amount must be positive")
	}

	// Total owed includes simple interest over the repayment term
	interest := req.Amount.Mul(req.InterestRate).Div(decimal.NewFromInt(100))
	total := req.Amount.Add(interest)
	monthly := total.Div(decimal.NewFromInt(int64(req.RepaymentMonths))).Round(4)

	now := time.Now()
	loan := &model.LoanRecord{
		StaffID:          staffID,
		LoanType:         req.LoanType,
		Amount:           req.Amount,
		InterestRate:     req.InterestRate,
		RepaymentMonths:  req.RepaymentMonths,
		MonthlyDeduction: monthly,
		Balance:          total,
		Status:           model.LoanActive,
		ApprovalDate:     &now,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.CreateLoan(txCtx, loan); createErr != nil {
			return createErr
		}
		details, _ := json.Marshal(map[string]interface{}{
			"loan_type": loan.LoanType,
			"amount":    loan.Amount.String(),
			"months":    loan.RepaymentMonths,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionCreateLoan,
			EntityID:   loan.ID.String(),
			EntityName: member.FullName(),
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *payrollService) ListLoans(ctx context.Context, staffID string, page, limit int) ([]model.LoanRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	var sid *uuid.UUID
	if staffID != "" {
		parsed, err := uuid.Parse(staffID)
		if err != nil {
			return nil, 0, errors.New("invalid staff id")
		}
		sid = &parsed
	}
	return s.repo.ListLoans(ctx, sid, page, limit)
}
