package model

import (
	"time"

	"github.com/google/uuid"
)

// StaffType enum constants
const (
	StaffTypeAcademic       = "academic"
	StaffTypeAdministrative = "administrative"
	StaffTypeSupport        = "support"
)

// StaffCategory enum constants
const (
	CategorySenior           = "senior"
	CategorySeniorSupporting = "senior_supporting"
	CategoryJunior           = "junior"
)

// StaffStatus enum constants
const (
	StaffStatusActive     = "active"
	StaffStatusRetired    = "retired"
	StaffStatusTerminated = "terminated"
)

// EmploymentType enum constants
const (
	EmploymentFullTime = "full_time"
	EmploymentPartTime = "part_time"
)

// LeadershipRole enum constants
const (
	LeadershipNone       = "none"
	LeadershipHeadOfDept = "head_of_department"
	LeadershipDean       = "dean"
	LeadershipRegistrar  = "registrar"
)

// RetirementAge is the mandatory retirement age in years
const RetirementAge = 65

// Staff is the personnel record for a university employee. Position,
// department and grade are mutated only by an approved promotion; status is
// mutated only by retirement/termination processing.
type Staff struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffNumber string    `gorm:"column:staff_number;type:varchar(20);uniqueIndex;not null" json:"staff_number"`
	FirstName   string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName    string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone       string    `gorm:"type:varchar(15);not null" json:"phone"`
	DateOfBirth time.Time `gorm:"type:date;not null" json:"date_of_birth"`
	Address     string    `gorm:"type:text" json:"address"`

	// Next of kin
	NextOfKinName         string `gorm:"type:varchar(200)" json:"next_of_kin_name"`
	NextOfKinRelationship string `gorm:"type:varchar(100)" json:"next_of_kin_relationship"`
	NextOfKinPhone        string `gorm:"type:varchar(15)" json:"next_of_kin_phone"`
	NextOfKinAddress      string `gorm:"type:text" json:"next_of_kin_address"`

	// Employment
	DepartmentID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"department_id"`
	Department     *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Position       string     `gorm:"type:varchar(100);not null" json:"position"`
	StaffType      string     `gorm:"type:varchar(20);not null" json:"staff_type"`
	StaffCategory  string     `gorm:"type:varchar(20);not null" json:"staff_category"`
	StaffGrade     string     `gorm:"type:varchar(10);not null" json:"staff_grade"`
	EmploymentType string     `gorm:"type:varchar(20);not null;default:'full_time'" json:"employment_type"`
	LeadershipRole string     `gorm:"type:varchar(30);not null;default:'none';index" json:"leadership_role"`
	SupervisorID   *uuid.UUID `gorm:"type:uuid;index" json:"supervisor_id"`
	Supervisor     *Staff     `gorm:"foreignKey:SupervisorID" json:"-"`
	HireDate       time.Time  `gorm:"type:date;not null" json:"hire_date"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	// Financial
	BankName          string `gorm:"type:varchar(100)" json:"bank_name"`
	BankAccountNumber string `gorm:"type:varchar(50)" json:"bank_account_number"`
	BankSortCode      string `gorm:"type:varchar(20)" json:"bank_sort_code"`
	NassitNumber      string `gorm:"type:varchar(50);uniqueIndex" json:"nassit_number"`

	// Qualifications
	HighestQualification string `gorm:"type:varchar(200)" json:"highest_qualification"`
	Institution          string `gorm:"type:varchar(200)" json:"institution"`
	GraduationYear       int    `json:"graduation_year"`
	OtherQualifications  string `gorm:"type:text" json:"other_qualifications"`
	Publications         string `gorm:"type:text" json:"publications"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the display name used in notifications and exports
func (s *Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// RetirementDate is date of birth plus the mandatory retirement age
func (s *Staff) RetirementDate() time.Time {
	return s.DateOfBirth.AddDate(RetirementAge, 0, 0)
}
