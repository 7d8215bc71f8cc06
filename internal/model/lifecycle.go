package model

import (
	"time"

	"github.com/google/uuid"
)

// RetirementType enum constants
const (
	RetirementVoluntary = "voluntary"
	RetirementMandatory = "mandatory"
	RetirementEarly     = "early"
)

// Retirement records a processed retirement. Processing one sets the staff
// status to retired in the same transaction.
type Retirement struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID        uuid.UUID `gorm:"type:uuid;not null;index" json:"staff_id"`
	Staff          *Staff    `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	RetirementDate time.Time `gorm:"type:date;not null" json:"retirement_date"`
	RetirementType string    `gorm:"type:varchar(20);not null" json:"retirement_type"`
	BenefitsInfo   string    `gorm:"type:text" json:"benefits_info"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// Bereavement is a compassionate leave grant. It is recorded as approved
// immediately and does not pass through the approval workflow.
type Bereavement struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID      uuid.UUID `gorm:"type:uuid;not null;index" json:"staff_id"`
	Staff        *Staff    `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	DeceasedName string    `gorm:"type:varchar(200);not null" json:"deceased_name"`
	Relationship string    `gorm:"type:varchar(100);not null" json:"relationship"`
	StartDate    time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate      time.Time `gorm:"type:date;not null" json:"end_date"`
	DaysGranted  int       `gorm:"not null" json:"days_granted"`
	CreatedAt    time.Time `json:"created_at"`
}
