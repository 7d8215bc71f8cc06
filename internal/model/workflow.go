package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestKind enum constants
const (
	RequestKindLeave     = "leave"
	RequestKindPromotion = "promotion"
)

// RequestState enum constants. Pending and SupervisorApproved are transient;
// Approved and Rejected are terminal. Transitions are forward-only.
const (
	StatePending            = "pending"
	StateSupervisorApproved = "supervisor_approved"
	StateApproved           = "approved"
	StateRejected           = "rejected"
)

// DecisionAction enum constants
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// LeaveType enum constants
const (
	LeaveAnnual    = "annual"
	LeaveSick      = "sick"
	LeaveMaternity = "maternity"
	LeavePaternity = "paternity"
	LeaveStudy     = "study"
	LeaveEmergency = "emergency"
)

// WorkflowRequest is a leave or promotion application moving through the
// two-stage approval workflow. Common decision fields live here; the
// kind-specific payload occupies the nullable column block matching Kind.
//
// SupervisorDecidedBy/At are set exactly once, on pending to supervisor_approved
// (or stamped together with the HR decision on a fast-path approval). They
// stay unset on a request rejected by HR directly from pending.
type WorkflowRequest struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind    string    `gorm:"type:varchar(20);not null;index" json:"kind"`
	StaffID uuid.UUID `gorm:"type:uuid;not null;index" json:"staff_id"`
	Staff   *Staff    `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	State   string    `gorm:"type:varchar(30);not null;default:'pending';index" json:"state"`

	SupervisorDecidedBy *uuid.UUID `gorm:"type:uuid" json:"supervisor_decided_by"`
	SupervisorDecider   *User      `gorm:"foreignKey:SupervisorDecidedBy" json:"supervisor_decider,omitempty"`
	SupervisorDecidedAt *time.Time `json:"supervisor_decided_at"`
	HRDecidedBy         *uuid.UUID `gorm:"column:hr_decided_by;type:uuid" json:"hr_decided_by"`
	HRDecider           *User      `gorm:"foreignKey:HRDecidedBy" json:"hr_decider,omitempty"`
	HRDecidedAt         *time.Time `gorm:"column:hr_decided_at" json:"hr_decided_at"`
	RejectionReason     string     `gorm:"type:text" json:"rejection_reason"`

	// Leave payload
	LeaveType     string     `gorm:"type:varchar(20)" json:"leave_type,omitempty"`
	StartDate     *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	DaysRequested int        `json:"days_requested,omitempty"`
	Reason        string     `gorm:"type:text" json:"reason,omitempty"`

	// Promotion payload
	OldPosition     string     `gorm:"type:varchar(100)" json:"old_position,omitempty"`
	NewPosition     string     `gorm:"type:varchar(100)" json:"new_position,omitempty"`
	OldDepartmentID *uuid.UUID `gorm:"type:uuid" json:"old_department_id,omitempty"`
	NewDepartmentID *uuid.UUID `gorm:"type:uuid" json:"new_department_id,omitempty"`
	OldGrade        string     `gorm:"type:varchar(10)" json:"old_grade,omitempty"`
	NewGrade        string     `gorm:"type:varchar(10)" json:"new_grade,omitempty"`
	EffectiveDate   *time.Time `gorm:"type:date" json:"effective_date,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the request has reached a final state
func (r *WorkflowRequest) Terminal() bool {
	return r.State == StateApproved || r.State == StateRejected
}
