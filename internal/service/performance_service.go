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
type ScheduleReviewRequest struct {
	StaffID       string `json:"staff_id" binding:"required"`
	SupervisorID  string `json:"supervisor_id" binding:"required"`
	PeriodStart   string `json:"period_start" binding:"required"`
	PeriodEnd     string `json:"period_end" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required"`
}

type CompleteReviewRequest struct {
	OverallRating       int    `json:"overall_rating" binding:"required,min=1,max=5"`
	Strengths           string `json:"strengths"`
	AreasForImprovement string `json:"areas_for_improvement"`
	SupervisorComments  string `json:"supervisor_comments"`
	StaffComments       string `json:"staff_comments"`
}

type CreateGoalRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date" binding:"required"`
}

type UpdateGoalRequest struct {
	Status             string `json:"status" binding:"omitempty,oneof=not_started in_progress completed"`
	ProgressPercentage *int   `json:"progress_percentage" binding:"omitempty,min=0,max=100"`
	Notes              string `json:"notes"`
}

// PerformanceService defines business logic for reviews and goals
type PerformanceService interface {
	ScheduleReview(ctx context.Context, req ScheduleReviewRequest) (*model.PerformanceReview, error)
	GetReview(ctx context.Context, id string) (*model.PerformanceReview, error)
	ListReviews(ctx context.Context, staffID, status string, page, limit int) ([]model.PerformanceReview, int64, error)
	CompleteReview(ctx context.Context, reviewID, actorUserID string, req CompleteReviewRequest) (*model.PerformanceReview, error)
	CancelReview(ctx context.Context, reviewID string) error

	AddGoal(ctx context.Context, reviewID string, req CreateGoalRequest) (*model.PerformanceGoal, error)
	ListGoals(ctx context.Context, reviewID string) ([]model.PerformanceGoal, error)
	UpdateGoal(ctx context.Context, goalID string, req UpdateGoalRequest) (*model.PerformanceGoal, error)
}

type performanceService struct {
	txm   repository.TransactionManager
	repo  repository.PerformanceRepository
	staff repository.StaffRepository
	audit AuditTrail
}

// NewPerformanceService returns a new instance of PerformanceService
func NewPerformanceService(txm repository.TransactionManager, repo repository.PerformanceRepository, staff repository.StaffRepository, audit AuditTrail) PerformanceService {
	return &performanceService{txm: txm, repo: repo, staff: staff, audit: audit}
}

func (s *performanceService) ScheduleReview(ctx context.Context, req ScheduleReviewRequest) (*model.PerformanceReview, error) {
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
	supervisorID, err := uuid.Parse(req.SupervisorID)
	if err != nil {
		return nil, errors.New("invalid supervisor id")
	}
	if staffID == supervisorID {
		return nil, errors.New("a staff member cannot review themselves")
	}
	if _, err := s.staff.GetByID(ctx, staffID); err != nil {
		return nil, errors.New("staff member not found")
	}
	if _, err := s.staff.GetByID(ctx, supervisorID); err != nil {
		return nil, errors.New("supervisor not found")
	}

	periodStart, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("invalid period_start: %w", err)
	}
	periodEnd, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid period_end: %w", err)
	}
	if periodEnd.Before(periodStart) {
		return nil, errors.New("period_end must not be before period_start")
	}
	scheduled, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduled_date: %w", err)
	}

	review := &model.PerformanceReview{
		StaffID:       staffID,
		SupervisorID:  supervisorID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		ScheduledDate: scheduled,
		Status:        model.ReviewScheduled,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *performanceService) GetReview(ctx context.Context, id string) (*model.PerformanceReview, error) {
	reviewID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid review id")
	}
	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return nil, errors.New("review not found")
	}
	return review, nil
}

func (s *performanceService) ListReviews(ctx context.Context, staffID, status string, page, limit int) ([]model.PerformanceReview, int64, error) {
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
	return s.repo.ListReviews(ctx, sid, status, page, limit)
}

func (s *performanceService) CompleteReview(ctx context.Context, reviewID, actorUserID string, req CompleteReviewRequest) (*model.PerformanceReview, error) {
	rid, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, errors.New("invalid review id")
	}
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return nil, errors.New("invalid actor id")
	}

	review, err := s.repo.GetReview(ctx, rid)
	if err != nil {
		return nil, errors.New("review not found")
	}
	if review.Status != model.ReviewScheduled {
		return nil, fmt.Errorf("review is already %s", review.Status)
	}

	now := time.Now()
	rating := req.OverallRating
	review.Status = model.ReviewCompleted
	review.CompletedDate = &now
	review.OverallRating = &rating
	review.Strengths = req.Strengths
	review.AreasForImprovement = req.AreasForImprovement
	review.SupervisorComments = req.SupervisorComments
	review.StaffComments = req.StaffComments

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.UpdateReview(txCtx, review); updateErr != nil {
			return updateErr
		}
		details, _ := json.Marshal(map[string]interface{}{"rating": rating})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:   &actorID,
			Action:   model.ActionCompleteReview,
			EntityID: review.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *performanceService) CancelReview(ctx context.Context, reviewID string) error {
	rid, err := uuid.Parse(reviewID)
	if err != nil {
		return errors.New("invalid review id")
	}
	review, err := s.repo.GetReview(ctx, rid)
	if err != nil {
		return errors.New("review not found")
	}
	if review.Status != model.ReviewScheduled {
		return fmt.Errorf("review is already %s", review.Status)
	}
	review.Status = model.ReviewCancelled
	return s.repo.UpdateReview(ctx, review)
}

func (s *performanceService) AddGoal(ctx context.Context, reviewID string, req CreateGoalRequest) (*model.PerformanceGoal, error) {
	rid, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, errors.New("invalid review id")
	}
	if _, err := s.repo.GetReview(ctx, rid); err != nil {
		return nil, errors.New("review not found")
	}
	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("invalid target_date: %w", err)
	}

	goal := &model.PerformanceGoal{
		ReviewID:    rid,
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  targetDate,
		Status:      model.GoalNotStarted,
	}
	if err := s.repo.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *performanceService) ListGoals(ctx context.Context, reviewID string) ([]model.PerformanceGoal, error) {
	rid, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, errors.New("invalid review id")
	}
	return s.repo.ListGoals(ctx, rid)
}

func (s *performanceService) UpdateGoal(ctx context.Context, goalID string, req UpdateGoalRequest) (*model.PerformanceGoal, error) {
	gid, err := uuid.Parse(goalID)
	if err != nil {
		return nil, errors.New("invalid goal id")
	}
	goal, err := s.getGoal(ctx, gid)
	if err != nil {
		return nil, err
	}

	if req.Status != "" {
		goal.Status = req.Status
		if req.Status == model.GoalCompleted {
			goal.ProgressPercentage = 100
		}
	}
	if req.ProgressPercentage != nil {
		goal.ProgressPercentage = *req.ProgressPercentage
		if goal.ProgressPercentage == 100 {
			goal.Status = model.GoalCompleted
		} else if goal.ProgressPercentage > 0 && goal.Status == model.GoalNotStarted {
			goal.Status = model.GoalInProgress
		}
	}
	if req.Notes != "" {
		goal.Notes = req.Notes
	}

	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *performanceService) getGoal(ctx context.Context, id uuid.UUID) (*model.PerformanceGoal, error) {
	goal, err := s.repo.GetGoal(ctx, id)
	if err != nil {
		return nil, errors.New("goal not found")
	}
	return goal, nil
}
