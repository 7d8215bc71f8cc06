package model

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus enum constants
const (
	ReviewScheduled = "scheduled"
	ReviewCompleted = "completed"
	ReviewCancelled = "cancelled"
)

// GoalStatus enum constants
const (
	GoalNotStarted = "not_started"
	GoalInProgress = "in_progress"
	GoalCompleted  = "completed"
)

// PerformanceReview is a periodic supervisor evaluation of a staff member
type PerformanceReview struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"staff_id"`
	Staff               *Staff     `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	SupervisorID        uuid.UUID  `gorm:"type:uuid;not null" json:"supervisor_id"`
	Supervisor          *Staff     `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	PeriodStart         time.Time  `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd           time.Time  `gorm:"type:date;not null" json:"period_end"`
	ScheduledDate       time.Time  `gorm:"not null" json:"scheduled_date"`
	CompletedDate       *time.Time `json:"completed_date"`
	Status              string     `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	OverallRating       *int       `json:"overall_rating"` // 1..5, set on completion
	Strengths           string     `gorm:"type:text" json:"strengths"`
	AreasForImprovement string     `gorm:"type:text" json:"areas_for_improvement"`
	SupervisorComments  string     `gorm:"type:text" json:"supervisor_comments"`
	StaffComments       string     `gorm:"type:text" json:"staff_comments"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// PerformanceGoal is an objective attached to a review
type PerformanceGoal struct {
	ID                 uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReviewID           uuid.UUID          `gorm:"type:uuid;not null;index" json:"review_id"`
	Review             *PerformanceReview `gorm:"foreignKey:ReviewID" json:"-"`
	Title              string             `gorm:"type:varchar(200);not null" json:"title"`
	Description        string             `gorm:"type:text" json:"description"`
	TargetDate         time.Time          `gorm:"type:date;not null" json:"target_date"`
	Status             string             `gorm:"type:varchar(20);not null;default:'not_started'" json:"status"`
	ProgressPercentage int                `gorm:"default:0" json:"progress_percentage"`
	Notes              string             `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
