package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- In-memory collaborators ---

// memTxManager serializes "transactions" with a mutex, mirroring the row
// locking the real repository does with SELECT ... FOR UPDATE.
type memTxManager struct {
	mu sync.Mutex
}

func (m *memTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type memWorkflowRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]model.WorkflowRequest
}

func newMemWorkflowRepo() *memWorkflowRepo {
	return &memWorkflowRepo{requests: make(map[uuid.UUID]model.WorkflowRequest)}
}

func (r *memWorkflowRepo) Create(ctx context.Context, req *model.WorkflowRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	r.requests[req.ID] = *req
	return nil
}

func (r *memWorkflowRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := req
	return &copied, nil
}

func (r *memWorkflowRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *memWorkflowRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.WorkflowRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *memWorkflowRepo) List(ctx context.Context, filter repository.WorkflowFilter) ([]model.WorkflowRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WorkflowRequest
	for _, req := range r.requests {
		if filter.StaffID != nil && req.StaffID != *filter.StaffID {
			continue
		}
		if filter.State != "" && req.State != filter.State {
			continue
		}
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

func (r *memWorkflowRepo) Update(ctx context.Context, req *model.WorkflowRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = *req
	return nil
}

type memStaffDir struct {
	mu      sync.Mutex
	staff   map[uuid.UUID]model.Staff
	applyFn func() error // optional failure injection for ApplyPromotion
	applied int
}

func newMemStaffDir() *memStaffDir {
	return &memStaffDir{staff: make(map[uuid.UUID]model.Staff)}
}

func (d *memStaffDir) add(s model.Staff) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.staff[s.ID] = s
}

func (d *memStaffDir) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.staff[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := s
	return &copied, nil
}

func (d *memStaffDir) FindHeadOfDepartment(ctx context.Context, departmentID uuid.UUID) (*model.Staff, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.staff {
		if s.DepartmentID == departmentID && s.LeadershipRole == model.LeadershipHeadOfDept && s.Status == model.StaffStatusActive {
			copied := s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *memStaffDir) ApplyPromotion(ctx context.Context, staffID uuid.UUID, position string, departmentID uuid.UUID, grade string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.applyFn != nil {
		if err := d.applyFn(); err != nil {
			return err
		}
	}
	s, ok := d.staff[staffID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Position = position
	s.DepartmentID = departmentID
	s.StaffGrade = grade
	d.staff[staffID] = s
	d.applied++
	return nil
}

type memAccounts struct {
	users    map[uuid.UUID]model.User
	officers map[uuid.UUID]model.HROfficer // keyed by user ID
}

func newMemAccounts() *memAccounts {
	return &memAccounts{
		users:    make(map[uuid.UUID]model.User),
		officers: make(map[uuid.UUID]model.HROfficer),
	}
}

func (a *memAccounts) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := a.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := u
	return &copied, nil
}

func (a *memAccounts) GetByStaffID(ctx context.Context, staffID uuid.UUID) (*model.User, error) {
	for _, u := range a.users {
		if u.StaffID != nil && *u.StaffID == staffID {
			copied := u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (a *memAccounts) GetActiveOfficer(ctx context.Context, userID uuid.UUID) (*model.HROfficer, error) {
	o, ok := a.officers[userID]
	if !ok || !o.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	copied := o
	return &copied, nil
}

type memDepts struct {
	departments map[uuid.UUID]model.Department
}

func (d *memDepts) GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	dept, ok := d.departments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := dept
	return &copied, nil
}

type memBalances struct {
	mu      sync.Mutex
	debits  []int
	debitFn func() error
}

func (b *memBalances) Debit(ctx context.Context, staffID uuid.UUID, year int, leaveType string, days int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.debitFn != nil {
		if err := b.debitFn(); err != nil {
			return err
		}
	}
	b.debits = append(b.debits, days)
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (a *memAudit) Log(ctx context.Context, entry *model.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *memAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type notifyCall struct {
	recipient uuid.UUID
	toHR      bool
	notifType string
	message   string
}

type memNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *memNotifier) NotifyUser(ctx context.Context, recipientID uuid.UUID, notifType, title, message string, entityID *uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{recipient: recipientID, notifType: notifType, message: message})
}

func (n *memNotifier) NotifyHROfficers(ctx context.Context, notifType, title, message string, entityID *uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{toHR: true, notifType: notifType, message: message})
}

// --- Fixture ---

type workflowFixture struct {
	svc      WorkflowService
	requests *memWorkflowRepo
	staff    *memStaffDir
	accounts *memAccounts
	balances *memBalances
	audit    *memAudit
	notifier *memNotifier

	deptID uuid.UUID

	employee   model.Staff // regular staff member
	supervisor model.Staff // employee's assigned supervisor

	employeeUser   model.User
	supervisorUser model.User
	hrUser         model.User // active officer, no fast-path
	fastHRUser     model.User // active officer with fast-path
	adminUser      model.User
	outsiderUser   model.User // staff in another department, no relation to employee
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	f := &workflowFixture{
		requests: newMemWorkflowRepo(),
		staff:    newMemStaffDir(),
		accounts: newMemAccounts(),
		balances: &memBalances{},
		audit:    &memAudit{},
		notifier: &memNotifier{},
		deptID:   uuid.New(),
	}

	depts := &memDepts{departments: map[uuid.UUID]model.Department{}}
	otherDeptID := uuid.New()
	depts.departments[f.deptID] = model.Department{ID: f.deptID, Name: "Computer Science"}
	depts.departments[otherDeptID] = model.Department{ID: otherDeptID, Name: "Mathematics"}

	f.supervisor = model.Staff{
		ID: uuid.New(), StaffNumber: "SU0001", FirstName: "Aminata", LastName: "Kamara",
		DepartmentID: f.deptID, Position: "Senior Lecturer", StaffGrade: "G8",
		LeadershipRole: model.LeadershipHeadOfDept, Status: model.StaffStatusActive,
	}
	supID := f.supervisor.ID
	f.employee = model.Staff{
		ID: uuid.New(), StaffNumber: "SU0002", FirstName: "Mohamed", LastName: "Sesay",
		DepartmentID: f.deptID, Position: "Lecturer", StaffGrade: "G6",
		SupervisorID: &supID, Status: model.StaffStatusActive,
	}
	f.staff.add(f.supervisor)
	f.staff.add(f.employee)

	f.employeeUser = f.addUser("msesay", model.RoleStaff, &f.employee.ID)
	f.supervisorUser = f.addUser("akamara", model.RoleStaff, &f.supervisor.ID)
	f.hrUser = f.addUser("hr.plain", model.RoleHR, nil)
	f.fastHRUser = f.addUser("hr.fast", model.RoleHR, nil)
	f.adminUser = f.addUser("admin", model.RoleAdmin, nil)

	outsider := model.Staff{
		ID: uuid.New(), StaffNumber: "SU0099", FirstName: "Fatmata", LastName: "Conteh",
		DepartmentID: otherDeptID, Position: "Lecturer", StaffGrade: "G6",
		Status: model.StaffStatusActive,
	}
	f.staff.add(outsider)
	f.outsiderUser = f.addUser("fconteh", model.RoleStaff, &outsider.ID)

	f.accounts.officers[f.hrUser.ID] = model.HROfficer{
		ID: uuid.New(), UserID: f.hrUser.ID, IsActive: true, CanFastApprove: false,
	}
	f.accounts.officers[f.fastHRUser.ID] = model.HROfficer{
		ID: uuid.New(), UserID: f.fastHRUser.ID, IsActive: true, CanFastApprove: true,
	}

	f.svc = NewWorkflowService(&memTxManager{}, f.requests, f.staff, f.accounts, depts, f.balances, f.audit, f.notifier)
	return f
}

func (f *workflowFixture) addUser(username, role string, staffID *uuid.UUID) model.User {
	u := model.User{ID: uuid.New(), Username: username, Email: username + "@university.edu", Role: role, StaffID: staffID}
	f.accounts.users[u.ID] = u
	return u
}

func (f *workflowFixture) submitLeave(t *testing.T) WorkflowRequestResponse {
	t.Helper()
	resp, err := f.svc.Submit(context.Background(), f.employeeUser.ID.String(), SubmitRequestDTO{
		Kind:          model.RequestKindLeave,
		LeaveType:     model.LeaveAnnual,
		StartDate:     "2026-09-07",
		EndDate:       "2026-09-11",
		DaysRequested: 5,
		Reason:        "Family visit",
	})
	require.NoError(t, err)
	return resp
}

func (f *workflowFixture) submitPromotion(t *testing.T) WorkflowRequestResponse {
	t.Helper()
	resp, err := f.svc.Submit(context.Background(), f.employeeUser.ID.String(), SubmitRequestDTO{
		Kind:            model.RequestKindPromotion,
		NewPosition:     "Senior Lecturer",
		NewDepartmentID: f.deptID.String(),
		NewGrade:        "G7",
		EffectiveDate:   "2026-10-01",
	})
	require.NoError(t, err)
	return resp
}

// --- Submit ---

func TestSubmitLeaveStartsPending(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := f.submitLeave(t)

	assert.Equal(t, model.StatePending, resp.State)
	assert.Equal(t, f.employee.ID.String(), resp.StaffID)
	assert.Nil(t, resp.SupervisorDecision)
	assert.Nil(t, resp.HRDecision)
	assert.Contains(t, f.audit.actions(), model.ActionSubmitLeave)

	// HR is told about the new application
	require.Len(t, f.notifier.calls, 1)
	assert.True(t, f.notifier.calls[0].toHR)
	assert.Equal(t, model.NotifyLeaveApplied, f.notifier.calls[0].notifType)
}

func TestSubmitPromotionSnapshotsCurrentPosition(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := f.submitPromotion(t)

	assert.Equal(t, "Lecturer", resp.OldPosition)
	assert.Equal(t, "Senior Lecturer", resp.NewPosition)
	assert.Equal(t, "G6", resp.OldGrade)
	assert.Equal(t, "G7", resp.NewGrade)
}

func TestSubmitLeaveValidation(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		dto  SubmitRequestDTO
	}{
		{"unknown leave type", SubmitRequestDTO{Kind: model.RequestKindLeave, LeaveType: "sabbatical", StartDate: "2026-09-07", EndDate: "2026-09-11", DaysRequested: 5}},
		{"end before start", SubmitRequestDTO{Kind: model.RequestKindLeave, LeaveType: model.LeaveAnnual, StartDate: "2026-09-11", EndDate: "2026-09-07", DaysRequested: 5}},
		{"zero days", SubmitRequestDTO{Kind: model.RequestKindLeave, LeaveType: model.LeaveAnnual, StartDate: "2026-09-07", EndDate: "2026-09-11", DaysRequested: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, f.employeeUser.ID.String(), tc.dto)
			assert.Error(t, err)
		})
	}
}

func TestSubmitOnBehalfRequiresHR(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	dto := SubmitRequestDTO{
		Kind: model.RequestKindLeave, LeaveType: model.LeaveAnnual,
		StartDate: "2026-09-07", EndDate: "2026-09-11", DaysRequested: 5,
		StaffID: f.employee.ID.String(),
	}

	_, err := f.svc.Submit(ctx, f.outsiderUser.ID.String(), dto)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Submit(ctx, f.hrUser.ID.String(), dto)
	assert.NoError(t, err)
}

// --- The two-stage happy path ---

func TestTwoStageLeaveApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	afterSup, err := f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateSupervisorApproved, afterSup.State)
	require.NotNil(t, afterSup.SupervisorDecision)
	assert.Equal(t, f.supervisorUser.ID.String(), afterSup.SupervisorDecision.Actor)
	assert.Nil(t, afterSup.HRDecision)

	afterHR, err := f.svc.Decide(ctx, req.ID, f.hrUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, afterHR.State)
	require.NotNil(t, afterHR.HRDecision)
	assert.Equal(t, f.hrUser.ID.String(), afterHR.HRDecision.Actor)

	// Balance debited exactly once, on final approval
	assert.Equal(t, []int{5}, f.balances.debits)
	assert.Contains(t, f.audit.actions(), model.ActionSupervisorApprove)
	assert.Contains(t, f.audit.actions(), model.ActionHRApprove)
}

func TestSupervisorSignOffNotifiesHR(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)
	f.notifier.calls = nil

	_, err := f.svc.Decide(context.Background(), req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	assert.True(t, f.notifier.calls[0].toHR)
	assert.Equal(t, model.NotifySupervisorSignOff, f.notifier.calls[0].notifType)
}

func TestFinalApprovalNotifiesApplicant(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)
	_, err := f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	f.notifier.calls = nil

	_, err = f.svc.Decide(ctx, req.ID, f.hrUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	call := f.notifier.calls[0]
	assert.Equal(t, f.employeeUser.ID, call.recipient)
	assert.Equal(t, model.NotifyLeaveApproved, call.notifType)
	assert.Contains(t, call.message, f.hrUser.Username)
}

// --- Fast path ---

func TestFastPathApprovalStampsBothDecisions(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)

	resp, err := f.svc.Decide(context.Background(), req.ID, f.fastHRUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, model.StateApproved, resp.State)
	require.NotNil(t, resp.SupervisorDecision)
	require.NotNil(t, resp.HRDecision)
	assert.Equal(t, f.fastHRUser.ID.String(), resp.SupervisorDecision.Actor)
	assert.Equal(t, f.fastHRUser.ID.String(), resp.HRDecision.Actor)
	assert.Equal(t, resp.SupervisorDecision.Timestamp, resp.HRDecision.Timestamp)
	assert.Contains(t, f.audit.actions(), model.ActionFastApprove)
}

func TestAdminCanFastApprove(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)

	resp, err := f.svc.Decide(context.Background(), req.ID, f.adminUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, resp.State)
}

func TestPlainHRCannotApproveFromPending(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)

	_, err := f.svc.Decide(context.Background(), req.ID, f.hrUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	stored, _ := f.requests.FindByID(context.Background(), uuid.MustParse(req.ID))
	assert.Equal(t, model.StatePending, stored.State)
	assert.Empty(t, f.balances.debits)
}

// --- Authorization ---

func TestUnrelatedActorAlwaysUnauthorized(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	_, err := f.svc.Decide(ctx, req.ID, f.outsiderUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	// Still unauthorized after the state moved on
	_, err = f.svc.Decide(ctx, req.ID, f.outsiderUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSupervisorCannotActAfterSignOff(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	_, err := f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSupervisorCannotReject(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)

	_, err := f.svc.Decide(context.Background(), req.ID, f.supervisorUser.ID.String(), model.ActionReject, "not this month")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestInactiveOfficerLosesHRCapability(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)

	officer := f.accounts.officers[f.fastHRUser.ID]
	officer.IsActive = false
	f.accounts.officers[f.fastHRUser.ID] = officer

	_, err := f.svc.Decide(context.Background(), req.ID, f.fastHRUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// --- Rejection ---

func TestRejectRequiresReason(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	_, err := f.svc.Decide(ctx, req.ID, f.hrUser.ID.String(), model.ActionReject, "   ")
	assert.ErrorIs(t, err, ErrMissingReason)

	// The reason check precedes authorization, so even an unrelated actor
	// sees the missing-reason error
	_, err = f.svc.Decide(ctx, req.ID, f.outsiderUser.ID.String(), model.ActionReject, "")
	assert.ErrorIs(t, err, ErrMissingReason)
}

func TestHRRejectFromPending(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)

	resp, err := f.svc.Decide(context.Background(), req.ID, f.hrUser.ID.String(), model.ActionReject, "insufficient balance")
	require.NoError(t, err)

	assert.Equal(t, model.StateRejected, resp.State)
	assert.Equal(t, "insufficient balance", resp.RejectionReason)
	// HR rejected directly from pending; the supervisor never signed off
	assert.Nil(t, resp.SupervisorDecision)
	require.NotNil(t, resp.HRDecision)
	assert.Empty(t, f.balances.debits)
}

func TestRejectionNotificationCarriesReasonVerbatim(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.submitLeave(t)
	f.notifier.calls = nil

	_, err := f.svc.Decide(context.Background(), req.ID, f.hrUser.ID.String(), model.ActionReject, "overlaps exam period")
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, model.NotifyLeaveRejected, f.notifier.calls[0].notifType)
	assert.Contains(t, f.notifier.calls[0].message, "overlaps exam period")
}

// --- Terminal states ---

func TestTerminalRequestAcceptsNoFurtherActions(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	_, err := f.svc.Decide(ctx, req.ID, f.fastHRUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, req.ID, f.fastHRUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Decide(ctx, req.ID, f.fastHRUser.ID.String(), model.ActionReject, "changed my mind")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDecideUnknownRequest(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.svc.Decide(context.Background(), uuid.NewString(), f.hrUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Side effects ---

func TestPromotionApprovalMutatesStaffRecord(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitPromotion(t)

	_, err := f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	_, err = f.svc.Decide(ctx, req.ID, f.hrUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	updated, err := f.staff.GetByID(ctx, f.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Lecturer", updated.Position)
	assert.Equal(t, "G7", updated.StaffGrade)
}

func TestFailedPromotionSideEffectAbortsTransition(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitPromotion(t)
	_, err := f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)

	f.staff.applyFn = func() error { return errors.New("staff row gone") }

	_, err = f.svc.Decide(ctx, req.ID, f.hrUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrSideEffect)

	// Request did not advance and the staff record is untouched
	stored, _ := f.requests.FindByID(ctx, uuid.MustParse(req.ID))
	assert.Equal(t, model.StateSupervisorApproved, stored.State)
	unchanged, _ := f.staff.GetByID(ctx, f.employee.ID)
	assert.Equal(t, "Lecturer", unchanged.Position)

	// Clearing the fault lets the same decision go through
	f.staff.applyFn = nil
	resp, err := f.svc.Decide(ctx, req.ID, f.hrUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, resp.State)
}

func TestFailedBalanceDebitAbortsLeaveApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	f.balances.debitFn = func() error { return errors.New("ledger unavailable") }

	_, err := f.svc.Decide(ctx, req.ID, f.fastHRUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrSideEffect)

	stored, _ := f.requests.FindByID(ctx, uuid.MustParse(req.ID))
	assert.Equal(t, model.StatePending, stored.State)
}

// --- Supervisor resolution ---

func TestHeadOfDepartmentFallsBackAsSupervisor(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	// Drop the explicit assignment; the department head should still be able
	// to sign off
	employee := f.employee
	employee.SupervisorID = nil
	f.staff.add(employee)

	req := f.submitLeave(t)
	resp, err := f.svc.Decide(ctx, req.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateSupervisorApproved, resp.State)
}

func TestHeadOfDepartmentOwnRequestGoesStraightToHR(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	// The head applies for leave; they cannot supervise themselves
	resp, err := f.svc.Submit(ctx, f.supervisorUser.ID.String(), SubmitRequestDTO{
		Kind: model.RequestKindLeave, LeaveType: model.LeaveAnnual,
		StartDate: "2026-09-07", EndDate: "2026-09-11", DaysRequested: 5,
	})
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, resp.ID, f.supervisorUser.ID.String(), model.ActionApprove, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	final, err := f.svc.Decide(ctx, resp.ID, f.fastHRUser.ID.String(), model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, final.State)
}

// --- Concurrency ---

func TestConcurrentDecisionsSerializeToOneWinner(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Decide(ctx, req.ID, f.fastHRUser.ID.String(), model.ActionApprove, "")
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidTransition):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	stored, _ := f.requests.FindByID(ctx, uuid.MustParse(req.ID))
	assert.Equal(t, model.StateApproved, stored.State)
	assert.Equal(t, []int{5}, f.balances.debits, "balance debited exactly once")
}

// --- Queries ---

func TestGetScopedToOwnerSupervisorAndHR(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	req := f.submitLeave(t)

	for _, actor := range []model.User{f.employeeUser, f.supervisorUser, f.hrUser, f.adminUser} {
		_, err := f.svc.Get(ctx, req.ID, actor.ID.String())
		assert.NoError(t, err, "actor %s", actor.Username)
	}

	_, err := f.svc.Get(ctx, req.ID, f.outsiderUser.ID.String())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestListScopesNonHRToOwnRequests(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	f.submitLeave(t)

	// Outsider submits their own request
	_, err := f.svc.Submit(ctx, f.outsiderUser.ID.String(), SubmitRequestDTO{
		Kind: model.RequestKindLeave, LeaveType: model.LeaveSick,
		StartDate: "2026-09-01", EndDate: "2026-09-02", DaysRequested: 2,
	})
	require.NoError(t, err)

	own, total, err := f.svc.List(ctx, f.employeeUser.ID.String(), WorkflowListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, own, 1)
	assert.Equal(t, f.employee.ID.String(), own[0].StaffID)

	all, total, err := f.svc.List(ctx, f.hrUser.ID.String(), WorkflowListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)
}
