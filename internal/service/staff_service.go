package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// DTOs for request validation
type CreateStaffRequest struct {
	StaffNumber string `json:"staff_number" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"required"` // YYYY-MM-DD
	Address     string `json:"address"`

	NextOfKinName         string `json:"next_of_kin_name"`
	NextOfKinRelationship string `json:"next_of_kin_relationship"`
	NextOfKinPhone        string `json:"next_of_kin_phone"`
	NextOfKinAddress      string `json:"next_of_kin_address"`

	DepartmentID   string `json:"department_id" binding:"required"`
	Position       string `json:"position" binding:"required"`
	StaffType      string `json:"staff_type" binding:"required,oneof=academic administrative support"`
	StaffCategory  string `json:"staff_category" binding:"required,oneof=senior senior_supporting junior"`
	StaffGrade     string `json:"staff_grade" binding:"required"`
	EmploymentType string `json:"employment_type" binding:"omitempty,oneof=full_time part_time"`
	LeadershipRole string `json:"leadership_role" binding:"omitempty,oneof=none head_of_department dean registrar"`
	SupervisorID   string `json:"supervisor_id"`
	HireDate       string `json:"hire_date" binding:"required"`

	BankName          string `json:"bank_name"`
	BankAccountNumber string `json:"bank_account_number"`
	BankSortCode      string `json:"bank_sort_code"`
	NassitNumber      string `json:"nassit_number"`

	HighestQualification string `json:"highest_qualification"`
	Institution          string `json:"institution"`
	GraduationYear       int    `json:"graduation_year"`
	OtherQualifications  string `json:"other_qualifications"`
	Publications         string `json:"publications"`
}

type UpdateStaffRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`

	NextOfKinName         string `json:"next_of_kin_name"`
	NextOfKinRelationship string `json:"next_of_kin_relationship"`
	NextOfKinPhone        string `json:"next_of_kin_phone"`
	NextOfKinAddress      string `json:"next_of_kin_address"`

	LeadershipRole string `json:"leadership_role" binding:"omitempty,oneof=none head_of_department dean registrar"`
	SupervisorID   string `json:"supervisor_id"`

	BankName          string `json:"bank_name"`
	BankAccountNumber string `json:"bank_account_number"`
	BankSortCode      string `json:"bank_sort_code"`
}

type StaffListFilter struct {
	Status       string
	DepartmentID string
	StaffType    string
	Page         int
	Limit        int
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// StaffService defines business logic for the staff directory
type StaffService interface {
	CreateStaff(ctx context.Context, actorUserID string, req CreateStaffRequest) (*model.Staff, error)
	GetStaffByID(ctx context.Context, id string) (*model.Staff, error)
	GetStaffByNumber(ctx context.Context, staffNumber string) (*model.Staff, error)
	ListStaff(ctx context.Context, filter StaffListFilter) ([]model.Staff, int64, error)
	UpdateStaff(ctx context.Context, actorUserID, id string, req UpdateStaffRequest) (*model.Staff, error)
	DeleteStaff(ctx context.Context, actorUserID, id string) error
	ImportStaffCSV(ctx context.Context, actorUserID string, r io.Reader) (*ImportResult, error)
}

type staffService struct {
	txm   repository.TransactionManager
	repo  repository.StaffRepository
	orgs  repository.OrganizationRepository
	audit AuditTrail
}

// NewStaffService returns a new instance of StaffService
func NewStaffService(txm repository.TransactionManager, repo repository.StaffRepository, orgs repository.OrganizationRepository, audit AuditTrail) StaffService {
	return &staffService{txm: txm, repo: repo, orgs: orgs, audit: audit}
}

func (s *staffService) CreateStaff(ctx context.Context, actorUserID string, req CreateStaffRequest) (*model.Staff, error) {
	if _, err := s.repo.GetByStaffNumber(ctx, req.StaffNumber); err == nil {
		return nil, errors.New("staff number already exists")
	}

	staff, err := s.buildStaff(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, staff); createErr != nil {
			return createErr
		}
		return s.logStaffAction(txCtx, actorUserID, model.ActionCreateStaff, staff)
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *staffService) buildStaff(ctx context.Context, req CreateStaffRequest) (*model.Staff, error) {
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("invalid date_of_birth: %w", err)
	}
	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		return nil, fmt.Errorf("invalid hire_date: %w", err)
	}

	deptID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("invalid department_id: %w", err)
	}
	if _, err := s.orgs.GetDepartment(ctx, deptID); err != nil {
		return nil, errors.New("department not found")
	}

	var supervisorID *uuid.UUID
	if req.SupervisorID != "" {
		supID, parseErr := uuid.Parse(req.SupervisorID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid supervisor_id: %w", parseErr)
		}
		if _, findErr := s.repo.GetByID(ctx, supID); findErr != nil {
			return nil, errors.New("supervisor not found")
		}
		supervisorID = &supID
	}

	employmentType := req.EmploymentType
	if employmentType == "" {
		employmentType = model.EmploymentFullTime
	}
	leadershipRole := req.LeadershipRole
	if leadershipRole == "" {
		leadershipRole = model.LeadershipNone
	}

	return &model.Staff{
		StaffNumber:           req.StaffNumber,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Email:                 strings.ToLower(req.Email),
		Phone:                 req.Phone,
		DateOfBirth:           dob,
		Address:               req.Address,
		NextOfKinName:         req.NextOfKinName,
		NextOfKinRelationship: req.NextOfKinRelationship,
		NextOfKinPhone:        req.NextOfKinPhone,
		NextOfKinAddress:      req.NextOfKinAddress,
		DepartmentID:          deptID,
		Position:              req.Position,
		StaffType:             req.StaffType,
		StaffCategory:         req.StaffCategory,
		StaffGrade:            req.StaffGrade,
		EmploymentType:        employmentType,
		LeadershipRole:        leadershipRole,
		SupervisorID:          supervisorID,
		HireDate:              hireDate,
		Status:                model.StaffStatusActive,
		BankName:              req.BankName,
		BankAccountNumber:     req.BankAccountNumber,
		BankSortCode:          req.BankSortCode,
		NassitNumber:          req.NassitNumber,
		HighestQualification:  req.HighestQualification,
		Institution:           req.Institution,
		GraduationYear:        req.GraduationYear,
		OtherQualifications:   req.OtherQualifications,
		Publications:          req.Publications,
	}, nil
}

func (s *staffService) GetStaffByID(ctx context.Context, id string) (*model.Staff, error) {
	staffID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
	staff, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return nil, errors.New("staff member not found")
	}
	return staff, nil
}

func (s *staffService) GetStaffByNumber(ctx context.Context, staffNumber string) (*model.Staff, error) {
	staff, err := s.repo.GetByStaffNumber(ctx, staffNumber)
	if err != nil {
		return nil, errors.New("staff member not found")
	}
	return staff, nil
}

func (s *staffService) ListStaff(ctx context.Context, filter StaffListFilter) ([]model.Staff, int64, error) {
	repoFilter := repository.StaffFilter{
		Status:    filter.Status,
		StaffType: filter.StaffType,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}
	if filter.DepartmentID != "" {
		deptID, err := uuid.Parse(filter.DepartmentID)
		if err != nil {
			return nil, 0, errors.New("invalid department id")
		}
		repoFilter.DepartmentID = &deptID
	}
	return s.repo.List(ctx, repoFilter)
}

func (s *staffService) UpdateStaff(ctx context.Context, actorUserID, id string, req UpdateStaffRequest) (*model.Staff, error) {
	staffID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid staff id")
	}
	staff, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return nil, errors.New("staff member not found")
	}

	// Contact and administrative fields only. Position, department, grade and
	// status are owned by the promotion workflow and lifecycle processing.
	if req.FirstName != "" {
		staff.FirstName = req.FirstName
	}
	if req.LastName != "" {
		staff.LastName = req.LastName
	}
	if req.Email != "" {
		staff.Email = strings.ToLower(req.Email)
	}
	if req.Phone != "" {
		staff.Phone = req.Phone
	}
	if req.Address != "" {
		staff.Address = req.Address
	}
	if req.NextOfKinName != "" {
		staff.NextOfKinName = req.NextOfKinName
	}
	if req.NextOfKinRelationship != "" {
		staff.NextOfKinRelationship = req.NextOfKinRelationship
	}
	if req.NextOfKinPhone != "" {
		staff.NextOfKinPhone = req.NextOfKinPhone
	}
	if req.NextOfKinAddress != "" {
		staff.NextOfKinAddress = req.NextOfKinAddress
	}
	if req.LeadershipRole != "" {
		staff.LeadershipRole = req.LeadershipRole
	}
	if req.BankName != "" {
		staff.BankName = req.BankName
	}
	if req.BankAccountNumber != "" {
		staff.BankAccountNumber = req.BankAccountNumber
	}
	if req.BankSortCode != "" {
		staff.BankSortCode = req.BankSortCode
	}
	if req.SupervisorID != "" {
		supID, parseErr := uuid.Parse(req.SupervisorID)
		if parseErr != nil {
			return nil, errors.New("invalid supervisor id")
		}
		if supID == staff.ID {
			return nil, errors.New("staff member cannot supervise themselves")
		}
		if _, findErr := s.repo.GetByID(ctx, supID); findErr != nil {
			return nil, errors.New("supervisor not found")
		}
		staff.SupervisorID = &supID
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, staff); updateErr != nil {
			return updateErr
		}
		return s.logStaffAction(txCtx, actorUserID, model.ActionUpdateStaff, staff)
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *staffService) DeleteStaff(ctx context.Context, actorUserID, id string) error {
	staffID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid staff id")
	}
	staff, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return errors.New("staff member not found")
	}
	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.repo.Delete(txCtx, staffID); delErr != nil {
			return delErr
		}
		return s.logStaffAction(txCtx, actorUserID, model.ActionDeleteStaff, staff)
	})
}

// csvColumns is the expected header of a staff import file
var csvColumns = []string{
	"staff_number", "first_name", "last_name", "email", "phone",
	"date_of_birth", "department_code", "position", "staff_type",
	"staff_category", "staff_grade", "hire_date", "nassit_number",
}

// ImportStaffCSV loads staff records in bulk. Each row is validated
// independently: bad rows are reported and skipped, good rows all commit in
// one transaction.
func (s *staffService) ImportStaffCSV(ctx context.Context, actorUserID string, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range csvColumns {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := &ImportResult{}
	var toImport []*model.Staff

	for line := 2; ; line++ {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", readErr)
		}

		field := func(name string) string { return strings.TrimSpace(record[col[name]]) }

		staff, rowErr := s.buildImportRow(ctx, field)
		if rowErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, rowErr))
			continue
		}
		toImport = append(toImport, staff)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		for _, staff := range toImport {
			if createErr := s.repo.Create(txCtx, staff); createErr != nil {
				return fmt.Errorf("failed to import %s: %w", staff.StaffNumber, createErr)
			}
		}
		details, _ := json.Marshal(map[string]interface{}{"imported": len(toImport), "skipped": result.Skipped})
		actorID, parseErr := uuid.Parse(actorUserID)
		if parseErr != nil {
			return fmt.Errorf("invalid actor id: %w", parseErr)
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionImportStaff,
			EntityName: "staff import",
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	result.Imported = len(toImport)
	return result, nil
}

func (s *staffService) buildImportRow(ctx context.Context, field func(string) string) (*model.Staff, error) {
	staffNumber := field("staff_number")
	if staffNumber == "" {
		return nil, errors.New("staff_number is empty")
	}
	if _, err := s.repo.GetByStaffNumber(ctx, staffNumber); err == nil {
		return nil, fmt.Errorf("staff number %s already exists", staffNumber)
	}

	dept, err := s.orgs.GetDepartmentByCode(ctx, field("department_code"))
	if err != nil {
		return nil, fmt.Errorf("unknown department code %q", field("department_code"))
	}

	dob, err := time.Parse("2006-01-02", field("date_of_birth"))
	if err != nil {
		return nil, fmt.Errorf("invalid date_of_birth: %v", err)
	}
	hireDate, err := time.Parse("2006-01-02", field("hire_date"))
	if err != nil {
		return nil, fmt.Errorf("invalid hire_date: %v", err)
	}

	staffType := field("staff_type")
	switch staffType {
	case model.StaffTypeAcademic, model.StaffTypeAdministrative, model.StaffTypeSupport:
	default:
		return nil, fmt.Errorf("invalid staff_type %q", staffType)
	}
	category := field("staff_category")
	switch category {
	case model.CategorySenior, model.CategorySeniorSupporting, model.CategoryJunior:
	default:
		return nil, fmt.Errorf("invalid staff_category %q", category)
	}

	return &model.Staff{
		StaffNumber:    staffNumber,
		FirstName:      field("first_name"),
		LastName:       field("last_name"),
		Email:          strings.ToLower(field("email")),
		Phone:          field("phone"),
		DateOfBirth:    dob,
		DepartmentID:   dept.ID,
		Position:       field("position"),
		StaffType:      staffType,
		StaffCategory:  category,
		StaffGrade:     field("staff_grade"),
		EmploymentType: model.EmploymentFullTime,
		LeadershipRole: model.LeadershipNone,
		HireDate:       hireDate,
		Status:         model.StaffStatusActive,
		NassitNumber:   field("nassit_number"),
	}, nil
}

func (s *staffService) logStaffAction(ctx context.Context, actorUserID, action string, staff *model.Staff) error {
	actorID, err := uuid.Parse(actorUserID)
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}
	details, _ := json.Marshal(map[string]interface{}{
		"staff_number": staff.StaffNumber,
		"department":   staff.DepartmentID.String(),
		"position":     staff.Position,
	})
	return s.audit.Log(ctx, &model.AuditLog{
		UserID:     &actorID,
		Action:     action,
		EntityID:   staff.ID.String(),
		EntityName: staff.FullName(),
		Details:    string(details),
	})
}
