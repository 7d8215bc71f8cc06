package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memLifecycleRepo struct {
	mu           sync.Mutex
	retirements  []model.Retirement
	bereavements []model.Bereavement
}

func (r *memLifecycleRepo) CreateRetirement(ctx context.Context, ret *model.Retirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	r.retirements = append(r.retirements, *ret)
	return nil
}

func (r *memLifecycleRepo) ListRetirements(ctx context.Context, page, limit int) ([]model.Retirement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Retirement(nil), r.retirements...), int64(len(r.retirements)), nil
}

func (r *memLifecycleRepo) CreateBereavement(ctx context.Context, b *model.Bereavement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.bereavements = append(r.bereavements, *b)
	return nil
}

func (r *memLifecycleRepo) ListBereavements(ctx context.Context, staffID *uuid.UUID, page, limit int) ([]model.Bereavement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Bereavement
	for _, b := range r.bereavements {
		if staffID != nil && b.StaffID != *staffID {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

// memBalanceRepo is a full in-memory LeaveBalanceRepository, unlike the
// debit-only memBalances ledger the workflow tests use.
type memBalanceRepo struct {
	mu   sync.Mutex
	rows map[string]model.LeaveBalance
}

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{rows: make(map[string]model.LeaveBalance)}
}

func balanceKey(staffID uuid.UUID, year int) string {
	return staffID.String() + "/" + strconv.Itoa(year)
}

func (r *memBalanceRepo) GetForYear(ctx context.Context, staffID uuid.UUID, year int) (*model.LeaveBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[balanceKey(staffID, year)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *memBalanceRepo) Debit(ctx context.Context, staffID uuid.UUID, year int, leaveType string, days int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := balanceKey(staffID, year)
	row, ok := r.rows[key]
	if !ok {
		return nil
	}
	switch leaveType {
	case model.LeaveAnnual:
		row.Annual -= days
	case model.LeaveSick:
		row.Sick -= days
	case model.LeaveMaternity:
		row.Maternity -= days
	case model.LeavePaternity:
		row.Paternity -= days
	case model.LeaveStudy:
		row.Study -= days
	case model.LeaveEmergency:
		row.Emergency -= days
	}
	r.rows[key] = row
	return nil
}

func (r *memBalanceRepo) Upsert(ctx context.Context, balance *model.LeaveBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if balance.ID == uuid.Nil {
		balance.ID = uuid.New()
	}
	r.rows[balanceKey(balance.StaffID, balance.Year)] = *balance
	return nil
}

type lifecycleFixture struct {
	svc      LifecycleService
	repo     *memLifecycleRepo
	staff    *memStaffRepo
	balances *memBalanceRepo
	accounts *memAccounts
	audit    *memAudit
	notifier *memNotifier

	member model.Staff
	user   model.User

	actorID string
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	staff := newMemStaffRepo()
	member := model.Staff{
		ID:          uuid.New(),
		StaffNumber: "SU0001",
		FirstName:   "Sahr",
		LastName:    "Gborie",
		DateOfBirth: time.Now().AddDate(-64, 0, 0), // 64 years old
		Status:      model.StaffStatusActive,
	}
	staff.add(member)

	accounts := newMemAccounts()
	user := model.User{ID: uuid.New(), Username: "sgborie", Role: model.RoleStaff, StaffID: &member.ID}
	accounts.users[user.ID] = user

	repo := &memLifecycleRepo{}
	balances := newMemBalanceRepo()
	audit := &memAudit{}
	notifier := &memNotifier{}

	return &lifecycleFixture{
		svc:      NewLifecycleService(&memTxManager{}, repo, staff, balances, accounts, audit, notifier),
		repo:     repo,
		staff:    staff,
		balances: balances,
		accounts: accounts,
		audit:    audit,
		notifier: notifier,
		member:   member,
		user:     user,
		actorID:  uuid.New().String(),
	}
}

func TestProcessRetirementFlipsStatus(t *testing.T) {
	f := newLifecycleFixture(t)

	retirement, err := f.svc.ProcessRetirement(context.Background(), f.actorID, ProcessRetirementRequest{
		StaffID:        f.member.ID.String(),
		RetirementDate: "2026-12-31",
		RetirementType: model.RetirementVoluntary,
	})
	require.NoError(t, err)

	updated, err := f.staff.GetByID(context.Background(), f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StaffStatusRetired, updated.Status)

	assert.Equal(t, []string{model.ActionProcessRetirement}, f.audit.actions())

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, f.user.ID, f.notifier.calls[0].recipient)
	assert.Equal(t, model.NotifyRetirementProcessed, f.notifier.calls[0].notifType)

	assert.Equal(t, model.RetirementVoluntary, retirement.RetirementType)
}

func TestProcessRetirementRejectsInactiveStaff(t *testing.T) {
	f := newLifecycleFixture(t)

	require.NoError(t, f.staff.SetStatus(context.Background(), f.member.ID, model.StaffStatusRetired))

	_, err := f.svc.ProcessRetirement(context.Background(), f.actorID, ProcessRetirementRequest{
		StaffID:        f.member.ID.String(),
		RetirementDate: "2026-12-31",
		RetirementType: model.RetirementMandatory,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not active")
	assert.Empty(t, f.repo.retirements)
}

func TestRecordBereavementValidatesDates(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.svc.RecordBereavement(context.Background(), f.actorID, RecordBereavementRequest{
		StaffID:      f.member.ID.String(),
		DeceasedName: "Kadiatu Gborie",
		Relationship: "mother",
		StartDate:    "2026-03-10",
		EndDate:      "2026-03-05",
		DaysGranted:  5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_date")
}

func TestRecordBereavementPersistsAndAudits(t *testing.T) {
	f := newLifecycleFixture(t)

	b, err := f.svc.RecordBereavement(context.Background(), f.actorID, RecordBereavementRequest{
		StaffID:      f.member.ID.String(),
		DeceasedName: "Kadiatu Gborie",
		Relationship: "mother",
		StartDate:    "2026-03-05",
		EndDate:      "2026-03-10",
		DaysGranted:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, b.DaysGranted)

	listed, total, err := f.svc.ListBereavements(context.Background(), f.member.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, listed, 1)

	assert.Equal(t, []string{model.ActionRecordBereavement}, f.audit.actions())
}

func TestSetLeaveBalanceProvisionsEntitlements(t *testing.T) {
	f := newLifecycleFixture(t)

	balance, err := f.svc.SetLeaveBalance(context.Background(), SetLeaveBalanceRequest{
		StaffID:   f.member.ID.String(),
		Year:      2026,
		Annual:    21,
		Sick:      10,
		Emergency: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 21, balance.Annual)

	fetched, err := f.svc.GetLeaveBalance(context.Background(), f.member.ID.String(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 21, fetched.Annual)
	assert.Equal(t, 10, fetched.Sick)
	assert.Equal(t, 3, fetched.Emergency)

	// Replacing the row resets the entitlements
	_, err = f.svc.SetLeaveBalance(context.Background(), SetLeaveBalanceRequest{
		StaffID: f.member.ID.String(),
		Year:    2026,
		Annual:  25,
	})
	require.NoError(t, err)

	fetched, err = f.svc.GetLeaveBalance(context.Background(), f.member.ID.String(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 25, fetched.Annual)
}

func TestSetLeaveBalanceRejectsUnknownStaff(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.svc.SetLeaveBalance(context.Background(), SetLeaveBalanceRequest{
		StaffID: uuid.New().String(),
		Year:    2026,
		Annual:  21,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetLeaveBalanceMissingYear(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.svc.GetLeaveBalance(context.Background(), f.member.ID.String(), 2031)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no leave balance")
}

func TestListRetirementsDueFlagsOverdueStaff(t *testing.T) {
	f := newLifecycleFixture(t)

	// Already past the mandatory age
	overdue := model.Staff{
		ID:          uuid.New(),
		StaffNumber: "SU0002",
		FirstName:   "Foday",
		LastName:    "Mansaray",
		DateOfBirth: time.Now().AddDate(-(model.RetirementAge + 1), 0, 0),
		Status:      model.StaffStatusActive,
	}
	// Decades away
	young := model.Staff{
		ID:          uuid.New(),
		StaffNumber: "SU0003",
		FirstName:   "Adama",
		LastName:    "Jalloh",
		DateOfBirth: time.Now().AddDate(-30, 0, 0),
		Status:      model.StaffStatusActive,
	}
	f.staff.add(overdue)
	f.staff.add(young)

	due, err := f.svc.ListRetirementsDue(context.Background(), 2*365*24*time.Hour)
	require.NoError(t, err)

	byNumber := make(map[string]RetirementDueEntry, len(due))
	for _, entry := range due {
		byNumber[entry.Staff.StaffNumber] = entry
	}

	// The 64-year-old fixture member falls inside the two-year horizon
	require.Contains(t, byNumber, "SU0001")
	assert.False(t, byNumber["SU0001"].Overdue)

	require.Contains(t, byNumber, "SU0002")
	assert.True(t, byNumber["SU0002"].Overdue)

	assert.NotContains(t, byNumber, "SU0003")
}
