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
)

// DTOs for request validation
type ProcessRetirementRequest struct {
	StaffID        string `json:"staff_id" binding:"required"`
	RetirementDate string `json:"retirement_date" binding:"required"`
	RetirementType string `json:"retirement_type" binding:"required,oneof=voluntary mandatory early"`
	BenefitsInfo   string `json:"benefits_info"`
	Notes          string `json:"notes"`
}

type RecordBereavementRequest struct {
	StaffID      string `json:"staff_id" binding:"required"`
	DeceasedName string `json:"deceased_name" binding:"required"`
	Relationship string `json:"relationship" binding:"required"`
	StartDate    string `json:"start_date" binding:"required"`
	EndDate      string `json:"end_date" binding:"required"`
	DaysGranted  int    `json:"days_granted" binding:"required,min=1"`
}

type SetLeaveBalanceRequest struct {
	StaffID   string `json:"staff_id" binding:"required"`
	Year      int    `json:"year" binding:"required,min=2000"`
	Annual    int    `json:"annual" binding:"min=0"`
	Sick      int    `json:"sick" binding:"min=0"`
	Maternity int    `json:"maternity" binding:"min=0"`
	Paternity int    `json:"paternity" binding:"min=0"`
	Study     int    `json:"study" binding:"min=0"`
	Emergency int    `json:"emergency" binding:"min=0"`
}

// RetirementDueEntry flags a staff member at or past the mandatory age
type RetirementDueEntry struct {
	Staff          model.Staff `json:"staff"`
	RetirementDate time.Time   `json:"retirement_date"`
	Overdue        bool        `json:"overdue"`
}

// LifecycleService processes retirements and bereavement grants. Unlike leave
// and promotion these do not pass through the approval workflow: they are
// HR-initiated records that take effect immediately.
type LifecycleService interface {
	ProcessRetirement(ctx context.Context, actorUserID string, req ProcessRetirementRequest) (*model.Retirement, error)
	ListRetirements(ctx context.Context, page, limit int) ([]model.Retirement, int64, error)
	ListRetirementsDue(ctx context.Context, within time.Duration) ([]RetirementDueEntry, error)

	RecordBereavement(ctx context.Context, actorUserID string, req RecordBereavementRequest) (*model.Bereavement, error)
	ListBereavements(ctx context.Context, staffID string, page, limit int) ([]model.Bereavement, int64, error)

	SetLeaveBalance(ctx context.Context, req SetLeaveBalanceRequest) (*model.LeaveBalance, error)
	GetLeaveBalance(ctx context.Context, staffID string, year int) (*model.LeaveBalance, error)
}

type lifecycleService struct {
	txm      repository.TransactionManager
	repo     repository.LifecycleRepository
	staff    repository.StaffRepository
	balances repository.LeaveBalanceRepository
	accounts AccountDirectory
	audit    AuditTrail
	notifier WorkflowNotifier
}

// NewLifecycleService returns a new instance of LifecycleService
func NewLifecycleService(
	txm repository.TransactionManager,
	repo repository.LifecycleRepository,
	staff repository.StaffRepository,
	balances repository.LeaveBalanceRepository,
	accounts AccountDirectory,
	audit AuditTrail,
	notifier WorkflowNotifier,
) LifecycleService {
	return &lifecycleService{txm: txm, repo: repo, staff: staff, balances: balances, accounts: accounts, audit: audit, notifier: notifier}
}

// ProcessRetirement records the retirement and flips the staff status in one
// transaction, so a retired staff member can never be left active.
func (s *lifecycleService) ProcessRetirement(ctx context.Context, actorUserID string, req ProcessRetirementRequest) (*model.Retirement, error) {
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return nil, errors.New("invalid actor id")
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
	retirementDate, err := time.Parse("2006-01-02", req.RetirementDate)
	if err != nil {
		return nil, fmt.Errorf("invalid retirement_date: %w", err)
	}

	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, errors.New("staff member not found")
	}
	if member.Status != model.StaffStatusActive {
		return nil, fmt.Errorf("staff member %s is not active", member.StaffNumber)
	}

	retirement := &model.Retirement{
		StaffID:        staffID,
		RetirementDate: retirementDate,
		RetirementType: req.RetirementType,
		BenefitsInfo:   req.BenefitsInfo,
		Notes:          req.Notes,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.CreateRetirement(txCtx, retirement); createErr != nil {
			return createErr
		}
		if statusErr := s.staff.SetStatus(txCtx, staffID, model.StaffStatusRetired); statusErr != nil {
			return statusErr
		}
		details, _ := json.Marshal(map[string]interface{}{
			"retirement_type": req.RetirementType,
			"retirement_date": req.RetirementDate,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionProcessRetirement,
			EntityID:   retirement.ID.String(),
			EntityName: member.FullName(),
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	if recipient, findErr := s.accounts.GetByStaffID(ctx, staffID); findErr == nil {
		s.notifier.NotifyUser(ctx, recipient.ID, model.NotifyRetirementProcessed,
			"Retirement Processed",
			fmt.Sprintf("Your %s retirement has been processed, effective %s.", req.RetirementType, req.RetirementDate),
			&retirement.ID)
	}

	return retirement, nil
}

func (s *lifecycleService) ListRetirements(ctx context.Context, page, limit int) ([]model.Retirement, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRetirements(ctx, page, limit)
}

// ListRetirementsDue scans active staff for anyone whose mandatory retirement
// date falls within the given horizon
func (s *lifecycleService) ListRetirementsDue(ctx context.Context, within time.Duration) ([]RetirementDueEntry, error) {
	staffList, _, err := s.staff.List(ctx, repository.StaffFilter{
		Status: model.StaffStatusActive,
		Page:   1,
		Limit:  100000,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	horizon := now.Add(within)
	var due []RetirementDueEntry
	for _, member := range staffList {
		retireDate := member.RetirementDate()
		if retireDate.After(horizon) {
			continue
		}
		due = append(due, RetirementDueEntry{
			Staff:          member,
			RetirementDate: retireDate,
			Overdue:        retireDate.Before(now),
		})
	}
	return due, nil
}

func (s *lifecycleService) RecordBereavement(ctx context.Context, actorUserID string, req RecordBereavementRequest) (*model.Bereavement, error) {
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return nil, errors.New("invalid actor id")
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
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

	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, errors.New("staff member not found")
	}

	bereavement := &model.Bereavement{
		StaffID:      staffID,
		DeceasedName: req.DeceasedName,
		Relationship: req.Relationship,
		StartDate:    start,
		EndDate:      end,
		DaysGranted:  req.DaysGranted,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.CreateBereavement(txCtx, bereavement); createErr != nil {
			return createErr
		}
		details, _ := json.Marshal(map[string]interface{}{
			"days_granted": req.DaysGranted,
			"relationship": req.Relationship,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionRecordBereavement,
			EntityID:   bereavement.ID.String(),
			EntityName: member.FullName(),
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return bereavement, nil
}

// SetLeaveBalance provisions or replaces the per-year entitlement row for a
// staff member. Leave approvals only ever debit an existing row.
func (s *lifecycleService) SetLeaveBalance(ctx context.Context, req SetLeaveBalanceRequest) (*model.LeaveBalance, error) {
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
	if _, err := s.staff.GetByID(ctx, staffID); err != nil {
		return nil, errors.New("staff member not found")
	}

	balance := &model.LeaveBalance{
		StaffID:   staffID,
		Year:      req.Year,
		Annual:    req.Annual,
		Sick:      req.Sick,
		Maternity: req.Maternity,
		Paternity: req.Paternity,
		Study:     req.Study,
		Emergency: req.Emergency,
	}
	if err := s.balances.Upsert(ctx, balance); err != nil {
		return nil, fmt.Errorf("failed to save leave balance: %w", err)
	}
	return balance, nil
}

func (s *lifecycleService) GetLeaveBalance(ctx context.Context, staffID string, year int) (*model.LeaveBalance, error) {
	sid, err := uuid.Parse(staffID)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
	if year <= 0 {
		year = time.Now().Year()
	}
	balance, err := s.balances.GetForYear(ctx, sid, year)
	if err != nil {
		return nil, errors.New("no leave balance recorded for that year")
	}
	return balance, nil
}

func (s *lifecycleService) ListBereavements(ctx context.Context, staffID string, page, limit int) ([]model.Bereavement, int64, error) {
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
	return s.repo.ListBereavements(ctx, sid, page, limit)
}
