package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// DTOs for request validation
type SchoolRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required,max=10"`
}

type DepartmentRequest struct {
	Name               string `json:"name" binding:"required"`
	Code               string `json:"code" binding:"required,max=10"`
	SchoolID           string `json:"school_id"`
	DepartmentType     string `json:"department_type" binding:"omitempty,oneof=academic administrative"`
	ParentDepartmentID string `json:"parent_department_id"`
}

// OrganizationService defines business logic for schools and departments
type OrganizationService interface {
	CreateSchool(ctx context.Context, req SchoolRequest) (*model.School, error)
	ListSchools(ctx context.Context) ([]model.School, error)
	UpdateSchool(ctx context.Context, id string, req SchoolRequest) (*model.School, error)
	DeleteSchool(ctx context.Context, id string) error

	CreateDepartment(ctx context.Context, req DepartmentRequest) (*model.Department, error)
	GetDepartment(ctx context.Context, id string) (*model.Department, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	UpdateDepartment(ctx context.Context, id string, req DepartmentRequest) (*model.Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	ImportOrganizationCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type organizationService struct {
	repo repository.OrganizationRepository
}

// NewOrganizationService returns a new instance of OrganizationService
func NewOrganizationService(repo repository.OrganizationRepository) OrganizationService {
	return &organizationService{repo: repo}
}

func (s *organizationService) CreateSchool(ctx context.Context, req SchoolRequest) (*model.School, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.GetSchoolByCode(ctx, code); err == nil {
		return nil, errors.New("school code already exists")
	}
	school := &model.School{Name: req.Name, Code: code}
	if err := s.repo.CreateSchool(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *organizationService) ListSchools(ctx context.Context) ([]model.School, error) {
	return s.repo.ListSchools(ctx)
}

func (s *organizationService) UpdateSchool(ctx context.Context, id string, req SchoolRequest) (*model.School, error) {
	schoolID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid school id")
	}
	school, err := s.repo.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, errors.New("school not found")
	}
	school.Name = req.Name
	school.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.repo.UpdateSchool(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *organizationService) DeleteSchool(ctx context.Context, id string) error {
	schoolID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid school id")
	}
	if _, err := s.repo.GetSchool(ctx, schoolID); err != nil {
		return errors.New("school not found")
	}
	return s.repo.DeleteSchool(ctx, schoolID)
}

func (s *organizationService) CreateDepartment(ctx context.Context, req DepartmentRequest) (*model.Department, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.GetDepartmentByCode(ctx, code); err == nil {
		return nil, errors.New("department code already exists")
	}

	dept := &model.Department{
		Name:           req.Name,
		Code:           code,
		DepartmentType: req.DepartmentType,
	}
	if dept.DepartmentType == "" {
		dept.DepartmentType = model.DeptTypeAcademic
	}

	if req.SchoolID != "" {
		schoolID, err := uuid.Parse(req.SchoolID)
		if err != nil {
			return nil, errors.New("invalid school id")
		}
		if _, err := s.repo.GetSchool(ctx, schoolID); err != nil {
			return nil, errors.New("school not found")
		}
		dept.SchoolID = &schoolID
	}
	if req.ParentDepartmentID != "" {
		parentID, err := uuid.Parse(req.ParentDepartmentID)
		if err != nil {
			return nil, errors.New("invalid parent department id")
		}
		if _, err := s.repo.GetDepartment(ctx, parentID); err != nil {
			return nil, errors.New("parent department not found")
		}
		dept.ParentDepartmentID = &parentID
	}

	if err := s.repo.CreateDepartment(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

func (s *organizationService) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid department id")
	}
	dept, err := s.repo.GetDepartment(ctx, deptID)
	if err != nil {
		return nil, errors.New("department not found")
	}
	return dept, nil
}

func (s *organizationService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return s.repo.ListDepartments(ctx)
}

func (s *organizationService) UpdateDepartment(ctx context.Context, id string, req DepartmentRequest) (*model.Department, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid department id")
	}
	dept, err := s.repo.GetDepartment(ctx, deptID)
	if err != nil {
		return nil, errors.New("department not found")
	}

	dept.Name = req.Name
	dept.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.DepartmentType != "" {
		dept.DepartmentType = req.DepartmentType
	}
	if req.SchoolID != "" {
		schoolID, parseErr := uuid.Parse(req.SchoolID)
		if parseErr != nil {
			return nil, errors.New("invalid school id")
		}
		if _, findErr := s.repo.GetSchool(ctx, schoolID); findErr != nil {
			return nil, errors.New("school not found")
		}
		dept.SchoolID = &schoolID
	}

	if err := s.repo.UpdateDepartment(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

func (s *organizationService) DeleteDepartment(ctx context.Context, id string) error {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid department id")
	}
	if _, err := s.repo.GetDepartment(ctx, deptID); err != nil {
		return errors.New("department not found")
	}
	return s.repo.DeleteDepartment(ctx, deptID)
}

// orgCSVColumns is the expected header of an organization import file. Each
// row is either a school or a department; departments may reference a school
// by code, including one created earlier in the same file.
var orgCSVColumns = []string{"kind", "code", "name", "school_code", "department_type"}

func (s *organizationService) ImportOrganizationCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range orgCSVColumns[:3] {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := &ImportResult{}
	line := 1
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		line++
		if readErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, readErr))
			continue
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		var rowErr error
		switch strings.ToLower(field("kind")) {
		case "school":
			_, rowErr = s.CreateSchool(ctx, SchoolRequest{Name: field("name"), Code: field("code")})
		case "department":
			req := DepartmentRequest{
				Name:           field("name"),
				Code:           field("code"),
				DepartmentType: field("department_type"),
			}
			if schoolCode := field("school_code"); schoolCode != "" {
				school, findErr := s.repo.GetSchoolByCode(ctx, strings.ToUpper(schoolCode))
				if findErr != nil {
					rowErr = fmt.Errorf("school code not found: %s", schoolCode)
					break
				}
				req.SchoolID = school.ID.String()
			}
			if rowErr == nil {
				_, rowErr = s.CreateDepartment(ctx, req)
			}
		default:
			rowErr = fmt.Errorf("unknown kind: %q", field("kind"))
		}

		if rowErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, rowErr))
			continue
		}
		result.Imported++
	}
	return result, nil
}
