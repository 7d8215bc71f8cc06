package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enum constants
const (
	NotifyLeaveApplied        = "leave_applied"
	NotifyLeaveApproved       = "leave_approved"
	NotifyLeaveRejected       = "leave_rejected"
	NotifyPromotionApplied    = "promotion_applied"
	NotifyPromotionApproved   = "promotion_approved"
	NotifyPromotionRejected   = "promotion_rejected"
	NotifySupervisorSignOff   = "supervisor_sign_off"
	NotifyRetirementProcessed = "retirement_processed"
	NotifyPayslipReady        = "payslip_ready"
)

// Notification is an in-app message for workflow and lifecycle events.
// Delivery is best effort; the workflow never blocks or fails on it.
type Notification struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient        *User      `gorm:"foreignKey:RecipientID" json:"-"`
	NotificationType string     `gorm:"type:varchar(30);not null;index" json:"notification_type"`
	Title            string     `gorm:"type:varchar(200);not null" json:"title"`
	Message          string     `gorm:"type:text;not null" json:"message"`
	IsRead           bool       `gorm:"default:false;index" json:"is_read"`
	EntityID         *uuid.UUID `gorm:"type:uuid" json:"entity_id"` // Linked workflow request / payslip / retirement
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
}
