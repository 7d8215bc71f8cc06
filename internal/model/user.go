package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleAdmin = "admin"
	RoleHR    = "hr"
	RoleStaff = "staff"
)

// User represents a login account. A user account may be linked to a staff
// record via StaffID; the link is an explicit foreign key set at
// registration, never inferred from a matching email address.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`   // Omit password from JSON requests/responses
	Role      string         `gorm:"type:varchar(50);not null" json:"role"` // admin, hr, staff
	StaffID   *uuid.UUID     `gorm:"type:uuid;index" json:"staff_id"`
	Staff     *Staff         `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// HROfficer designates a user/staff pair as an active Human Resource
// Management Officer. CanFastApprove marks the privileged actor class that
// may approve a workflow request directly, skipping the supervisor stage.
type HROfficer struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"-"`
	StaffID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"staff_id"`
	Staff          Staff     `gorm:"foreignKey:StaffID" json:"-"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CanFastApprove bool      `gorm:"default:false" json:"can_fast_approve"`
	CreatedAt      time.Time `json:"created_at"`
}
