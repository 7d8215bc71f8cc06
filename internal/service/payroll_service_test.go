package service

import (
	"context"
	"sync"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputePAYEBands(t *testing.T) {
	cases := []struct {
		name    string
		taxable string
		want    string
	}{
		{"zero income", "0", "0"},
		{"inside tax-free band", "500000", "0"},
		{"band boundary is still tax free", "600000", "0"},
		{"partially into second band", "800000", "30000"},       // 200k at 15%
		{"through third band", "1500000", "150000"},             // 600k*15% + 300k*20%
		{"top band", "3000000", "540000"},                       // 90k+120k+150k + 600k*30%
		{"negative taxable clamps to zero", "-100", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := computePAYE(dec(tc.taxable))
			assert.True(t, dec(tc.want).Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestComputePayslip(t *testing.T) {
	structure := &model.SalaryStructure{
		BasicSalary:        dec("2000000"),
		HousingAllowance:   dec("300000"),
		TransportAllowance: dec("150000"),
		MedicalAllowance:   dec("100000"),
		OtherAllowances:    dec("50000"),
	}

	p := ComputePayslip(structure, nil)

	assert.True(t, dec("600000").Equal(p.Allowances), "allowances: %s", p.Allowances)
	assert.True(t, dec("2600000").Equal(p.GrossPay), "gross: %s", p.GrossPay)
	// NASSIT is 5% of basic, not of gross
	assert.True(t, dec("100000").Equal(p.NassitDeduction), "nassit: %s", p.NassitDeduction)
	// Taxable 2,500,000: 90k + 120k + 150k + 100k*30% = 390k
	assert.True(t, dec("390000").Equal(p.IncomeTax), "tax: %s", p.IncomeTax)
	assert.True(t, p.LoanDeductions.IsZero())
	// 2,600,000 - 100,000 - 390,000
	assert.True(t, dec("2110000").Equal(p.NetPay), "net: %s", p.NetPay)
}

func TestComputePayslipDeductsActiveLoans(t *testing.T) {
	structure := &model.SalaryStructure{BasicSalary: dec("2000000")}

	loans := []model.LoanRecord{
		{MonthlyDeduction: dec("175000"), Balance: dec("1000000")},
		{MonthlyDeduction: dec("50000"), Balance: dec("500000")},
	}

	p := ComputePayslip(structure, loans)
	assert.True(t, dec("225000").Equal(p.LoanDeductions), "loan deductions: %s", p.LoanDeductions)
}

func TestComputePayslipCapsFinalLoanInstalment(t *testing.T) {
	structure := &model.SalaryStructure{BasicSalary: dec("2000000")}

	// Outstanding balance is below the monthly deduction
	loans := []model.LoanRecord{
		{MonthlyDeduction: dec("175000"), Balance: dec("60000")},
	}

	p := ComputePayslip(structure, loans)
	assert.True(t, dec("60000").Equal(p.LoanDeductions), "loan deductions: %s", p.LoanDeductions)
}

func TestComputePayslipNetIdentity(t *testing.T) {
	structure := &model.SalaryStructure{
		BasicSalary:      dec("1750000"),
		HousingAllowance: dec("250000"),
	}
	loans := []model.LoanRecord{{MonthlyDeduction: dec("100000"), Balance: dec("900000")}}

	p := ComputePayslip(structure, loans)

	recomputed := p.GrossPay.Sub(p.IncomeTax).Sub(p.NassitDeduction).Sub(p.LoanDeductions)
	assert.True(t, recomputed.Equal(p.NetPay), "net identity: %s vs %s", recomputed, p.NetPay)
}

// --- Pay run ---

type memPayrollRepo struct {
	mu         sync.Mutex
	structures []model.SalaryStructure
	periods    map[uuid.UUID]model.PayrollPeriod
	payslips   []model.Payslip
	loans      map[uuid.UUID]model.LoanRecord
}

func newMemPayrollRepo() *memPayrollRepo {
	return &memPayrollRepo{
		periods: make(map[uuid.UUID]model.PayrollPeriod),
		loans:   make(map[uuid.UUID]model.LoanRecord),
	}
}

func (r *memPayrollRepo) UpsertSalaryStructure(ctx context.Context, s *model.SalaryStructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.structures {
		existing := &r.structures[i]
		if existing.StaffCategory == s.StaffCategory && existing.StaffGrade == s.StaffGrade && existing.EmploymentType == s.EmploymentType {
			s.ID = existing.ID
			r.structures[i] = *s
			return nil
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.structures = append(r.structures, *s)
	return nil
}

func (r *memPayrollRepo) FindSalaryStructure(ctx context.Context, category, grade, employmentType string) (*model.SalaryStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.structures {
		s := r.structures[i]
		if s.StaffCategory == category && s.StaffGrade == grade && s.EmploymentType == employmentType {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPayrollRepo) ListSalaryStructures(ctx context.Context) ([]model.SalaryStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.SalaryStructure(nil), r.structures...), nil
}

func (r *memPayrollRepo) CreatePeriod(ctx context.Context, p *model.PayrollPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.periods[p.ID] = *p
	return nil
}

func (r *memPayrollRepo) GetPeriod(ctx context.Context, id uuid.UUID) (*model.PayrollPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.periods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := p
	return &copied, nil
}

func (r *memPayrollRepo) GetPeriodForUpdate(ctx context.Context, id uuid.UUID) (*model.PayrollPeriod, error) {
	return r.GetPeriod(ctx, id)
}

func (r *memPayrollRepo) ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PayrollPeriod
	for _, p := range r.periods {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPayrollRepo) UpdatePeriod(ctx context.Context, p *model.PayrollPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.periods[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.periods[p.ID] = *p
	return nil
}

func (r *memPayrollRepo) CreatePayslip(ctx context.Context, p *model.Payslip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payslips = append(r.payslips, *p)
	return nil
}

func (r *memPayrollRepo) ListPayslipsForPeriod(ctx context.Context, periodID uuid.UUID) ([]model.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Payslip
	for _, p := range r.payslips {
		if p.PeriodID == periodID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPayrollRepo) ListPayslipsForStaff(ctx context.Context, staffID uuid.UUID, page, limit int) ([]model.Payslip, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Payslip
	for _, p := range r.payslips {
		if p.StaffID == staffID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memPayrollRepo) CreateLoan(ctx context.Context, l *model.LoanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.loans[l.ID] = *l
	return nil
}

func (r *memPayrollRepo) ListActiveLoansForStaff(ctx context.Context, staffID uuid.UUID) ([]model.LoanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.LoanRecord
	for _, l := range r.loans {
		if l.StaffID == staffID && l.Status == model.LoanActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memPayrollRepo) ListLoans(ctx context.Context, staffID *uuid.UUID, page, limit int) ([]model.LoanRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.LoanRecord
	for _, l := range r.loans {
		if staffID != nil && l.StaffID != *staffID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (r *memPayrollRepo) UpdateLoan(ctx context.Context, l *model.LoanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[l.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.loans[l.ID] = *l
	return nil
}

type payrollFixture struct {
	svc      PayrollService
	repo     *memPayrollRepo
	staff    *memStaffRepo
	accounts *memAccounts
	audit    *memAudit
	notifier *memNotifier

	member model.Staff
	user   model.User
	period model.PayrollPeriod

	actorID string
}

func newPayrollFixture(t *testing.T) *payrollFixture {
	t.Helper()

	staff := newMemStaffRepo()
	member := model.Staff{
		ID:             uuid.New(),
		StaffNumber:    "SU0001",
		FirstName:      "Mariama",
		LastName:       "Sesay",
		StaffCategory:  model.CategorySenior,
		StaffGrade:     "L2",
		EmploymentType: model.EmploymentFullTime,
		Status:         model.StaffStatusActive,
	}
	staff.add(member)

	accounts := newMemAccounts()
	user := model.User{ID: uuid.New(), Username: "msesay", Role: model.RoleStaff, StaffID: &member.ID}
	accounts.users[user.ID] = user

	repo := newMemPayrollRepo()
	repo.structures = append(repo.structures, model.SalaryStructure{
		ID:               uuid.New(),
		StaffCategory:    model.CategorySenior,
		StaffGrade:       "L2",
		EmploymentType:   model.EmploymentFullTime,
		BasicSalary:      dec("2000000"),
		HousingAllowance: dec("300000"),
	})

	audit := &memAudit{}
	notifier := &memNotifier{}
	svc := NewPayrollService(&memTxManager{}, repo, staff, accounts, audit, notifier)

	period, err := svc.CreatePeriod(context.Background(), CreatePeriodRequest{
		Name:      "January 2026",
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	require.NoError(t, err)

	return &payrollFixture{
		svc:      svc,
		repo:     repo,
		staff:    staff,
		accounts: accounts,
		audit:    audit,
		notifier: notifier,
		member:   member,
		user:     user,
		period:   *period,
		actorID:  uuid.New().String(),
	}
}

func TestProcessPeriodCreatesPayslipsAndDecrementsLoans(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	loan, err := f.svc.CreateLoan(ctx, f.actorID, CreateLoanRequest{
		StaffID:         f.member.ID.String(),
		LoanType:        model.LoanSalaryAdvance,
		Amount:          dec("1000000"),
		InterestRate:    dec("5"),
		RepaymentMonths: 10,
	})
	require.NoError(t, err)
	// 1,050,000 over 10 months
	assert.True(t, dec("105000").Equal(loan.MonthlyDeduction), "monthly: %s", loan.MonthlyDeduction)

	result, err := f.svc.ProcessPeriod(ctx, f.period.ID.String(), f.actorID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Empty(t, result.Skipped)

	payslips, err := f.svc.ListPayslipsForPeriod(ctx, f.period.ID.String())
	require.NoError(t, err)
	require.Len(t, payslips, 1)
	assert.Equal(t, f.member.ID, payslips[0].StaffID)
	assert.True(t, dec("105000").Equal(payslips[0].LoanDeductions), "deductions: %s", payslips[0].LoanDeductions)

	updated := f.repo.loans[loan.ID]
	assert.True(t, dec("945000").Equal(updated.Balance), "balance: %s", updated.Balance)
	assert.Equal(t, model.LoanActive, updated.Status)

	stored, err := f.repo.GetPeriod(ctx, f.period.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsProcessed)
	require.NotNil(t, stored.ProcessedBy)
	assert.Equal(t, f.actorID, stored.ProcessedBy.String())

	// Loan creation and the pay run both leave an audit trail
	assert.Equal(t, []string{model.ActionCreateLoan, model.ActionProcessPayroll}, f.audit.actions())

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, f.user.ID, f.notifier.calls[0].recipient)
	assert.Equal(t, model.NotifyPayslipReady, f.notifier.calls[0].notifType)
}

func TestProcessPeriodSkipsStaffWithoutStructure(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	unmatched := model.Staff{
		ID:             uuid.New(),
		StaffNumber:    "SU0002",
		FirstName:      "Ibrahim",
		LastName:       "Conteh",
		StaffCategory:  model.CategoryJunior,
		StaffGrade:     "L1",
		EmploymentType: model.EmploymentFullTime,
		Status:         model.StaffStatusActive,
	}
	f.staff.add(unmatched)

	result, err := f.svc.ProcessPeriod(ctx, f.period.ID.String(), f.actorID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []string{"SU0002"}, result.Skipped)
}

func TestProcessPeriodRejectsAlreadyProcessed(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	_, err := f.svc.ProcessPeriod(ctx, f.period.ID.String(), f.actorID)
	require.NoError(t, err)

	_, err = f.svc.ProcessPeriod(ctx, f.period.ID.String(), f.actorID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already been processed")
}

func TestProcessPeriodCompletesLoanOnFinalInstalment(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	loanID := uuid.New()
	f.repo.loans[loanID] = model.LoanRecord{
		ID:               loanID,
		StaffID:          f.member.ID,
		LoanType:         model.LoanEmergency,
		Amount:           dec("500000"),
		RepaymentMonths:  5,
		MonthlyDeduction: dec("100000"),
		Balance:          dec("40000"),
		Status:           model.LoanActive,
	}

	_, err := f.svc.ProcessPeriod(ctx, f.period.ID.String(), f.actorID)
	require.NoError(t, err)

	updated := f.repo.loans[loanID]
	assert.True(t, updated.Balance.IsZero(), "balance: %s", updated.Balance)
	assert.Equal(t, model.LoanCompleted, updated.Status)

	payslips, err := f.svc.ListPayslipsForPeriod(ctx, f.period.ID.String())
	require.NoError(t, err)
	require.Len(t, payslips, 1)
	assert.True(t, dec("40000").Equal(payslips[0].LoanDeductions), "deductions: %s", payslips[0].LoanDeductions)
}
