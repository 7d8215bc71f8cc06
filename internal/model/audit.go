package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateStaff = "CREATE_STAFF"
	ActionUpdateStaff = "UPDATE_STAFF"
	ActionDeleteStaff = "DELETE_STAFF"
	ActionImportStaff = "IMPORT_STAFF"

	// Approval workflow actions
	ActionSubmitLeave       = "SUBMIT_LEAVE"
	ActionSubmitPromotion   = "SUBMIT_PROMOTION"
	ActionSupervisorApprove = "SUPERVISOR_APPROVE"
	ActionHRApprove         = "HR_APPROVE"
	ActionHRReject          = "HR_REJECT"
	ActionFastApprove       = "FAST_APPROVE"

	// Lifecycle and payroll actions
	ActionProcessRetirement = "PROCESS_RETIREMENT"
	ActionRecordBereavement = "RECORD_BEREAVEMENT"
	ActionProcessPayroll    = "PROCESS_PAYROLL"
	ActionCreateLoan        = "CREATE_LOAN"
	ActionCompleteReview    = "COMPLETE_REVIEW"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated task
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
