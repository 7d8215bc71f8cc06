package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow error taxonomy. Handlers map these to HTTP statuses; callers that
// want retry semantics implement them on top; the service never retries.
var (
	ErrNotFound          = errors.New("workflow request not found")
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrUnauthorized      = errors.New("actor not authorized for this action")
	ErrMissingReason     = errors.New("rejection reason is required")
	ErrSideEffect        = errors.New("workflow side effect failed")
)

// --- DTOs ---

type SubmitRequestDTO struct {
	Kind    string `json:"kind" binding:"required,oneof=leave promotion"`
	StaffID string `json:"staff_id"` // optional: HR may submit on another staff member's behalf

	// Leave payload
	LeaveType     string `json:"leave_type"`
	StartDate     string `json:"start_date"` // YYYY-MM-DD
	EndDate       string `json:"end_date"`
	DaysRequested int    `json:"days_requested"`
	Reason        string `json:"reason"`

	// Promotion payload
	NewPosition     string `json:"new_position"`
	NewDepartmentID string `json:"new_department_id"`
	NewGrade        string `json:"new_grade"`
	EffectiveDate   string `json:"effective_date"`
}

type WorkflowListFilter struct {
	StaffID string
	State   string
	Kind    string
	Page    int
	Limit   int
}

type DecisionRecordDTO struct {
	Actor     string `json:"actor"`
	ActorName string `json:"actor_name,omitempty"`
	Timestamp string `json:"timestamp"`
}

type WorkflowRequestResponse struct {
	ID                 string             `json:"id"`
	Kind               string             `json:"kind"`
	StaffID            string             `json:"staff_id"`
	StaffName          string             `json:"staff_name,omitempty"`
	State              string             `json:"state"`
	SupervisorDecision *DecisionRecordDTO `json:"supervisor_decision,omitempty"`
	HRDecision         *DecisionRecordDTO `json:"hr_decision,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty"`

	LeaveType     string `json:"leave_type,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	DaysRequested int    `json:"days_requested,omitempty"`
	Reason        string `json:"reason,omitempty"`

	OldPosition     string `json:"old_position,omitempty"`
	NewPosition     string `json:"new_position,omitempty"`
	OldDepartmentID string `json:"old_department_id,omitempty"`
	NewDepartmentID string `json:"new_department_id,omitempty"`
	OldGrade        string `json:"old_grade,omitempty"`
	NewGrade        string `json:"new_grade,omitempty"`
	EffectiveDate   string `json:"effective_date,omitempty"`

	CreatedAt string `json:"created_at"`
}

// --- Collaborator interfaces ---

// StaffDirectory resolves staff records, supervisors and applies approved
// promotions. Satisfied by repository.StaffRepository.
type StaffDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	FindHeadOfDepartment(ctx context.Context, departmentID uuid.UUID) (*model.Staff, error)
	ApplyPromotion(ctx context.Context, staffID uuid.UUID, position string, departmentID uuid.UUID, grade string) error
}

// AccountDirectory resolves actors and HR officer capability. Satisfied by
// repository.UserRepository.
type AccountDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByStaffID(ctx context.Context, staffID uuid.UUID) (*model.User, error)
	GetActiveOfficer(ctx context.Context, userID uuid.UUID) (*model.HROfficer, error)
}

// DepartmentFinder validates promotion targets at submit time. Satisfied by
// repository.OrganizationRepository.
type DepartmentFinder interface {
	GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error)
}

// BalanceLedger debits leave entitlements when a leave request is approved.
// Satisfied by repository.LeaveBalanceRepository.
type BalanceLedger interface {
	Debit(ctx context.Context, staffID uuid.UUID, year int, leaveType string, days int) error
}

// AuditTrail appends transition records. Satisfied by repository.AuditRepository.
type AuditTrail interface {
	Log(ctx context.Context, entry *model.AuditLog) error
}

// WorkflowNotifier delivers best-effort notifications after a transition has
// committed. Implementations log their own failures; the workflow never
// blocks on delivery or surfaces delivery errors.
type WorkflowNotifier interface {
	NotifyUser(ctx context.Context, recipientID uuid.UUID, notifType, title, message string, entityID *uuid.UUID)
	NotifyHROfficers(ctx context.Context, notifType, title, message string, entityID *uuid.UUID)
}

// --- Interface ---

type WorkflowService interface {
	Submit(ctx context.Context, actorUserID string, req SubmitRequestDTO) (WorkflowRequestResponse, error)
	Decide(ctx context.Context, requestID, actorUserID, action, reason string) (WorkflowRequestResponse, error)
	Get(ctx context.Context, requestID, actorUserID string) (WorkflowRequestResponse, error)
	List(ctx context.Context, actorUserID string, filter WorkflowListFilter) ([]WorkflowRequestResponse, int64, error)
}

type workflowService struct {
	txm      repository.TransactionManager
	requests repository.WorkflowRepository
	staff    StaffDirectory
	accounts AccountDirectory
	depts    DepartmentFinder
	balances BalanceLedger
	audit    AuditTrail
	notifier WorkflowNotifier
	now      func() time.Time
}

func NewWorkflowService(
	txm repository.TransactionManager,
	requests repository.WorkflowRepository,
	staff StaffDirectory,
	accounts AccountDirectory,
	depts DepartmentFinder,
	balances BalanceLedger,
	audit AuditTrail,
	notifier WorkflowNotifier,
) WorkflowService {
	return &workflowService{
		txm:      txm,
		requests: requests,
		staff:    staff,
		accounts: accounts,
		depts:    depts,
		balances: balances,
		audit:    audit,
		notifier: notifier,
		now:      time.Now,
	}
}

// --- Submit ---

func (s *workflowService) Submit(ctx context.Context, actorUserID string, dto SubmitRequestDTO) (WorkflowRequestResponse, error) {
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("invalid actor id: %w", err)
	}

	actor, err := s.accounts.GetByID(ctx, actorID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("%w: unknown actor", ErrUnauthorized)
	}

	subject, err := s.resolveSubject(ctx, actor, dto.StaffID)
	if err != nil {
		return WorkflowRequestResponse{}, err
	}
	if subject.Status != model.StaffStatusActive {
		return WorkflowRequestResponse{}, fmt.Errorf("staff member %s is not active", subject.StaffNumber)
	}

	request := &model.WorkflowRequest{
		Kind:    dto.Kind,
		StaffID: subject.ID,
		State:   model.StatePending,
	}

	var auditAction string
	switch dto.Kind {
	case model.RequestKindLeave:
		if err := s.fillLeavePayload(request, dto); err != nil {
			return WorkflowRequestResponse{}, err
		}
		auditAction = model.ActionSubmitLeave
	case model.RequestKindPromotion:
		if err := s.fillPromotionPayload(ctx, request, subject, dto); err != nil {
			return WorkflowRequestResponse{}, err
		}
		auditAction = model.ActionSubmitPromotion
	default:
		return WorkflowRequestResponse{}, fmt.Errorf("unknown request kind: %s", dto.Kind)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.requests.Create(txCtx, request); createErr != nil {
			return fmt.Errorf("failed to create workflow request: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"kind":     request.Kind,
			"staff_id": request.StaffID.String(),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor.ID,
			Action:     auditAction,
			EntityID:   request.ID.String(),
			EntityName: subject.FullName(),
			Details:    string(details),
		})
	})
	if err != nil {
		return WorkflowRequestResponse{}, err
	}

	s.notifySubmitted(ctx, request, subject)

	return toWorkflowResponse(request), nil
}

func (s *workflowService) resolveSubject(ctx context.Context, actor *model.User, staffID string) (*model.Staff, error) {
	if staffID != "" {
		subjectID, err := uuid.Parse(staffID)
		if err != nil {
			return nil, fmt.Errorf("invalid staff id: %w", err)
		}
		// Submitting on someone else's behalf is an HR action
		if actor.StaffID == nil || *actor.StaffID != subjectID {
			if !s.isHR(ctx, actor) {
				return nil, fmt.Errorf("%w: only HR may submit on behalf of another staff member", ErrUnauthorized)
			}
		}
		subject, err := s.staff.GetByID(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("staff member not found: %w", err)
		}
		return subject, nil
	}

	if actor.StaffID == nil {
		return nil, fmt.Errorf("%w: account is not linked to a staff record", ErrUnauthorized)
	}
	subject, err := s.staff.GetByID(ctx, *actor.StaffID)
	if err != nil {
		return nil, fmt.Errorf("staff record not found: %w", err)
	}
	return subject, nil
}

func (s *workflowService) fillLeavePayload(request *model.WorkflowRequest, dto SubmitRequestDTO) error {
	if !validLeaveType(dto.LeaveType) {
		return fmt.Errorf("invalid leave type: %s", dto.LeaveType)
	}
	start, err := time.Parse("2006-01-02", dto.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", dto.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end_date: %w", err)
	}
	if end.Before(start) {
		return errors.New("end_date must not be before start_date")
	}
	if dto.DaysRequested <= 0 {
		return errors.New("days_requested must be a positive integer")
	}
	request.LeaveType = dto.LeaveType
	request.StartDate = &start
	request.EndDate = &end
	request.DaysRequested = dto.DaysRequested
	request.Reason = dto.Reason
	return nil
}

func (s *workflowService) fillPromotionPayload(ctx context.Context, request *model.WorkflowRequest, subject *model.Staff, dto SubmitRequestDTO) error {
	if dto.NewPosition == "" || dto.NewGrade == "" {
		return errors.New("new_position and new_grade are required for a promotion request")
	}
	newDeptID, err := uuid.Parse(dto.NewDepartmentID)
	if err != nil {
		return fmt.Errorf("invalid new_department_id: %w", err)
	}
	if _, err := s.depts.GetDepartment(ctx, newDeptID); err != nil {
		return fmt.Errorf("target department not found: %w", err)
	}
	effective, err := time.Parse("2006-01-02", dto.EffectiveDate)
	if err != nil {
		return fmt.Errorf("invalid effective_date: %w", err)
	}

	// Snapshot the current employment fields so the request carries the
	// before/after pair even if the staff record changes later
	oldDept := subject.DepartmentID
	request.OldPosition = subject.Position
	request.NewPosition = dto.NewPosition
	request.OldDepartmentID = &oldDept
	request.NewDepartmentID = &newDeptID
	request.OldGrade = subject.StaffGrade
	request.NewGrade = dto.NewGrade
	request.EffectiveDate = &effective
	return nil
}

// --- Decide ---

func (s *workflowService) Decide(ctx context.Context, requestID, actorUserID, action, reason string) (WorkflowRequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("%w: invalid request id", ErrNotFound)
	}
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("invalid actor id: %w", err)
	}

	if action != model.ActionApprove && action != model.ActionReject {
		return WorkflowRequestResponse{}, fmt.Errorf("unknown action: %s", action)
	}
	// A reject without a reason never proceeds, regardless of actor or state
	if action == model.ActionReject && strings.TrimSpace(reason) == "" {
		return WorkflowRequestResponse{}, ErrMissingReason
	}

	actor, err := s.accounts.GetByID(ctx, actorID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("%w: unknown actor", ErrUnauthorized)
	}

	var (
		updated     *model.WorkflowRequest
		subject     *model.Staff
		auditAction string
	)

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requests.FindByIDForUpdate(txCtx, reqID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return findErr
		}

		var subjErr error
		subject, subjErr = s.staff.GetByID(txCtx, request.StaffID)
		if subjErr != nil {
			return fmt.Errorf("subject staff record not found: %w", subjErr)
		}

		caps, capErr := s.resolveCapabilities(txCtx, actor, subject)
		if capErr != nil {
			return capErr
		}

		// A caller who is neither the supervisor nor HR is rejected outright,
		// independent of the request's state
		if !caps.isHR && !caps.isSupervisor {
			return ErrUnauthorized
		}

		// Terminal states accept no further actions. A racing decision that
		// read the old state lands here after the winner commits.
		if request.Terminal() {
			return ErrInvalidTransition
		}

		if caps.isSupervisor && !caps.isHR && request.State != model.StatePending {
			return ErrUnauthorized
		}

		now := s.now()
		switch {
		case request.State == model.StatePending && action == model.ActionApprove && caps.isSupervisor && !caps.fastPath:
			request.State = model.StateSupervisorApproved
			request.SupervisorDecidedBy = &actor.ID
			request.SupervisorDecidedAt = &now
			auditAction = model.ActionSupervisorApprove

		case request.State == model.StatePending && action == model.ActionApprove:
			// Direct approval from pending skips the supervisor stage and is
			// reserved for the fast-path actor class; both decision records
			// carry the same actor and timestamp
			if !caps.isHR || !caps.fastPath {
				return ErrUnauthorized
			}
			request.State = model.StateApproved
			request.SupervisorDecidedBy = &actor.ID
			request.SupervisorDecidedAt = &now
			request.HRDecidedBy = &actor.ID
			request.HRDecidedAt = &now
			auditAction = model.ActionFastApprove
			if effErr := s.applyApprovalSideEffects(txCtx, request); effErr != nil {
				return effErr
			}

		case request.State == model.StateSupervisorApproved && action == model.ActionApprove:
			// Only HR reaches this arm: a pure supervisor was rejected above
			request.State = model.StateApproved
			request.HRDecidedBy = &actor.ID
			request.HRDecidedAt = &now
			auditAction = model.ActionHRApprove
			if effErr := s.applyApprovalSideEffects(txCtx, request); effErr != nil {
				return effErr
			}

		case action == model.ActionReject:
			// Rejection is an HR action in every state
			if !caps.isHR {
				return ErrInvalidTransition
			}
			request.State = model.StateRejected
			request.HRDecidedBy = &actor.ID
			request.HRDecidedAt = &now
			request.RejectionReason = reason
			auditAction = model.ActionHRReject

		default:
			return ErrInvalidTransition
		}

		if saveErr := s.requests.Update(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update workflow request: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"kind":   request.Kind,
			"state":  request.State,
			"reason": request.RejectionReason,
		})
		if auditErr := s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor.ID,
			Action:     auditAction,
			EntityID:   request.ID.String(),
			EntityName: subject.FullName(),
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		updated = request
		return nil
	})
	if err != nil {
		return WorkflowRequestResponse{}, err
	}

	// State and decisions are durable at this point; notification delivery is
	// best effort and cannot undo the transition
	s.notifyDecided(ctx, updated, subject, actor)

	return toWorkflowResponse(updated), nil
}

// applyApprovalSideEffects runs the kind-specific effect inside the deciding
// transaction. Any failure aborts the whole transition: state, decisions and
// the staff mutation commit together or not at all.
func (s *workflowService) applyApprovalSideEffects(ctx context.Context, request *model.WorkflowRequest) error {
	switch request.Kind {
	case model.RequestKindPromotion:
		if request.NewDepartmentID == nil {
			return fmt.Errorf("%w: promotion request has no target department", ErrSideEffect)
		}
		if err := s.staff.ApplyPromotion(ctx, request.StaffID, request.NewPosition, *request.NewDepartmentID, request.NewGrade); err != nil {
			return fmt.Errorf("%w: %v", ErrSideEffect, err)
		}
	case model.RequestKindLeave:
		if request.StartDate == nil {
			return fmt.Errorf("%w: leave request has no start date", ErrSideEffect)
		}
		if err := s.balances.Debit(ctx, request.StaffID, request.StartDate.Year(), request.LeaveType, request.DaysRequested); err != nil {
			return fmt.Errorf("%w: %v", ErrSideEffect, err)
		}
	}
	return nil
}

// --- Queries ---

func (s *workflowService) Get(ctx context.Context, requestID, actorUserID string) (WorkflowRequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("%w: invalid request id", ErrNotFound)
	}
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("invalid actor id: %w", err)
	}

	request, err := s.requests.FindByIDWithRelations(ctx, reqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WorkflowRequestResponse{}, ErrNotFound
		}
		return WorkflowRequestResponse{}, err
	}

	actor, err := s.accounts.GetByID(ctx, actorID)
	if err != nil {
		return WorkflowRequestResponse{}, fmt.Errorf("%w: unknown actor", ErrUnauthorized)
	}
	if !s.canView(ctx, actor, request) {
		return WorkflowRequestResponse{}, ErrUnauthorized
	}

	return toWorkflowResponse(request), nil
}

func (s *workflowService) List(ctx context.Context, actorUserID string, filter WorkflowListFilter) ([]WorkflowRequestResponse, int64, error) {
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid actor id: %w", err)
	}
	actor, err := s.accounts.GetByID(ctx, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: unknown actor", ErrUnauthorized)
	}

	repoFilter := repository.WorkflowFilter{
		State: filter.State,
		Kind:  filter.Kind,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	if filter.StaffID != "" {
		staffID, parseErr := uuid.Parse(filter.StaffID)
		if parseErr != nil {
			return nil, 0, fmt.Errorf("invalid staff id: %w", parseErr)
		}
		repoFilter.StaffID = &staffID
	}

	// Non-HR callers only ever see their own requests
	if !s.isHR(ctx, actor) {
		if actor.StaffID == nil {
			return nil, 0, fmt.Errorf("%w: account is not linked to a staff record", ErrUnauthorized)
		}
		repoFilter.StaffID = actor.StaffID
	}

	requests, total, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]WorkflowRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toWorkflowResponse(&requests[i]))
	}
	return result, total, nil
}

func (s *workflowService) canView(ctx context.Context, actor *model.User, request *model.WorkflowRequest) bool {
	if s.isHR(ctx, actor) {
		return true
	}
	if actor.StaffID != nil && *actor.StaffID == request.StaffID {
		return true
	}
	// The resolved supervisor may inspect requests awaiting their sign-off
	if subject, err := s.staff.GetByID(ctx, request.StaffID); err == nil {
		if sup, supErr := s.resolveSupervisor(ctx, subject); supErr == nil && sup != nil {
			return actor.StaffID != nil && *actor.StaffID == sup.ID
		}
	}
	return false
}

// --- Actor resolution ---

type actorCapabilities struct {
	isHR         bool
	fastPath     bool
	isSupervisor bool
}

func (s *workflowService) resolveCapabilities(ctx context.Context, actor *model.User, subject *model.Staff) (actorCapabilities, error) {
	caps := actorCapabilities{}

	switch actor.Role {
	case model.RoleAdmin:
		// Superuser-equivalent: HR capability plus the fast-path privilege
		caps.isHR = true
		caps.fastPath = true
	case model.RoleHR:
		officer, err := s.accounts.GetActiveOfficer(ctx, actor.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return caps, err
		}
		if officer != nil {
			caps.isHR = true
			caps.fastPath = officer.CanFastApprove
		}
	}

	supervisor, err := s.resolveSupervisor(ctx, subject)
	if err != nil {
		return caps, err
	}
	if supervisor != nil && actor.StaffID != nil && *actor.StaffID == supervisor.ID {
		caps.isSupervisor = true
	}

	return caps, nil
}

// resolveSupervisor returns the assigned supervisor if present, otherwise the
// active head of the subject's department, otherwise nil, in which case the
// supervisor stage is unreachable and only HR may act on the request.
func (s *workflowService) resolveSupervisor(ctx context.Context, subject *model.Staff) (*model.Staff, error) {
	if subject.SupervisorID != nil {
		supervisor, err := s.staff.GetByID(ctx, *subject.SupervisorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return supervisor, nil
	}

	head, err := s.staff.FindHeadOfDepartment(ctx, subject.DepartmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// A head of department cannot supervise their own requests
	if head.ID == subject.ID {
		return nil, nil
	}
	return head, nil
}

func (s *workflowService) isHR(ctx context.Context, actor *model.User) bool {
	if actor.Role == model.RoleAdmin {
		return true
	}
	if actor.Role != model.RoleHR {
		return false
	}
	officer, err := s.accounts.GetActiveOfficer(ctx, actor.ID)
	return err == nil && officer != nil
}

// --- Notifications ---

func (s *workflowService) notifySubmitted(ctx context.Context, request *model.WorkflowRequest, subject *model.Staff) {
	switch request.Kind {
	case model.RequestKindLeave:
		s.notifier.NotifyHROfficers(ctx, model.NotifyLeaveApplied,
			"New Leave Application - "+subject.FullName(),
			fmt.Sprintf("%s (%s) applied for %s leave, %s to %s (%d days).",
				subject.FullName(), subject.StaffNumber, request.LeaveType,
				formatDate(request.StartDate), formatDate(request.EndDate), request.DaysRequested),
			&request.ID)
	case model.RequestKindPromotion:
		s.notifier.NotifyHROfficers(ctx, model.NotifyPromotionApplied,
			"New Promotion Application - "+subject.FullName(),
			fmt.Sprintf("%s (%s) applied for promotion from %s to %s, effective %s.",
				subject.FullName(), subject.StaffNumber, request.OldPosition,
				request.NewPosition, formatDate(request.EffectiveDate)),
			&request.ID)
	}
}

func (s *workflowService) notifyDecided(ctx context.Context, request *model.WorkflowRequest, subject *model.Staff, actor *model.User) {
	if request.State == model.StateSupervisorApproved {
		s.notifier.NotifyHROfficers(ctx, model.NotifySupervisorSignOff,
			"Supervisor Sign-off - "+subject.FullName(),
			fmt.Sprintf("The %s request for %s has supervisor approval and awaits HR review.",
				request.Kind, subject.FullName()),
			&request.ID)
		return
	}

	recipient, err := s.accounts.GetByStaffID(ctx, subject.ID)
	if err != nil {
		// Subject has no login account; nothing to deliver
		return
	}

	switch {
	case request.State == model.StateApproved && request.Kind == model.RequestKindLeave:
		s.notifier.NotifyUser(ctx, recipient.ID, model.NotifyLeaveApproved,
			"Leave Application Approved",
			fmt.Sprintf("Your %s leave from %s to %s (%d days) has been approved by %s.",
				request.LeaveType, formatDate(request.StartDate), formatDate(request.EndDate),
				request.DaysRequested, actor.Username),
			&request.ID)
	case request.State == model.StateApproved && request.Kind == model.RequestKindPromotion:
		s.notifier.NotifyUser(ctx, recipient.ID, model.NotifyPromotionApproved,
			"Promotion Application Approved",
			fmt.Sprintf("Congratulations! Your promotion to %s (grade %s) has been approved by %s, effective %s.",
				request.NewPosition, request.NewGrade, actor.Username, formatDate(request.EffectiveDate)),
			&request.ID)
	case request.State == model.StateRejected:
		notifType := model.NotifyLeaveRejected
		title := "Leave Application Rejected"
		if request.Kind == model.RequestKindPromotion {
			notifType = model.NotifyPromotionRejected
			title = "Promotion Application Rejected"
		}
		s.notifier.NotifyUser(ctx, recipient.ID, notifType, title,
			fmt.Sprintf("Your %s application has been rejected. Reason: %s", request.Kind, request.RejectionReason),
			&request.ID)
	}
}

// --- Helpers ---

func validLeaveType(t string) bool {
	switch t {
	case model.LeaveAnnual, model.LeaveSick, model.LeaveMaternity,
		model.LeavePaternity, model.LeaveStudy, model.LeaveEmergency:
		return true
	}
	return false
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func toWorkflowResponse(r *model.WorkflowRequest) WorkflowRequestResponse {
	resp := WorkflowRequestResponse{
		ID:              r.ID.String(),
		Kind:            r.Kind,
		StaffID:         r.StaffID.String(),
		State:           r.State,
		RejectionReason: r.RejectionReason,
		LeaveType:       r.LeaveType,
		StartDate:       formatDate(r.StartDate),
		EndDate:         formatDate(r.EndDate),
		DaysRequested:   r.DaysRequested,
		Reason:          r.Reason,
		OldPosition:     r.OldPosition,
		NewPosition:     r.NewPosition,
		OldGrade:        r.OldGrade,
		NewGrade:        r.NewGrade,
		EffectiveDate:   formatDate(r.EffectiveDate),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}

	if r.Staff != nil {
		resp.StaffName = r.Staff.FullName()
	}
	if r.OldDepartmentID != nil {
		resp.OldDepartmentID = r.OldDepartmentID.String()
	}
	if r.NewDepartmentID != nil {
		resp.NewDepartmentID = r.NewDepartmentID.String()
	}
	if r.SupervisorDecidedBy != nil {
		rec := &DecisionRecordDTO{Actor: r.SupervisorDecidedBy.String()}
		if r.SupervisorDecidedAt != nil {
			rec.Timestamp = r.SupervisorDecidedAt.Format(time.RFC3339)
		}
		if r.SupervisorDecider != nil {
			rec.ActorName = r.SupervisorDecider.Username
		}
		resp.SupervisorDecision = rec
	}
	if r.HRDecidedBy != nil {
		rec := &DecisionRecordDTO{Actor: r.HRDecidedBy.String()}
		if r.HRDecidedAt != nil {
			rec.Timestamp = r.HRDecidedAt.Format(time.RFC3339)
		}
		if r.HRDecider != nil {
			rec.ActorName = r.HRDecider.Username
		}
		resp.HRDecision = rec
	}

	return resp
}
