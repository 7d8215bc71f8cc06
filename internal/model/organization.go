package model

import (
	"time"

	"github.com/google/uuid"
)

// DepartmentType enum constants
const (
	DeptTypeAcademic       = "academic"
	DeptTypeAdministrative = "administrative"
)

// School groups academic departments (faculty level)
type School struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	Code      string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Department is the organizational unit staff belong to. Administrative
// departments have no school; academic ones usually do.
type Department struct {
	ID                 uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name               string      `gorm:"type:varchar(200);not null" json:"name"`
	Code               string      `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	SchoolID           *uuid.UUID  `gorm:"type:uuid;index" json:"school_id"`
	School             *School     `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	DepartmentType     string      `gorm:"type:varchar(20);not null;default:'academic'" json:"department_type"`
	ParentDepartmentID *uuid.UUID  `gorm:"type:uuid" json:"parent_department_id"`
	ParentDepartment   *Department `gorm:"foreignKey:ParentDepartmentID" json:"-"`
	CreatedAt          time.Time   `json:"created_at"`
}
