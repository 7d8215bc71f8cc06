package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ReportService produces downloadable exports: the staff directory as CSV and
// a payroll period as an Excel workbook.
type ReportService interface {
	ExportStaffCSV(ctx context.Context, filter StaffListFilter, w io.Writer) error
	ExportPayrollXLSX(ctx context.Context, periodID string, w io.Writer) error
}

type reportService struct {
	staff   repository.StaffRepository
	payroll repository.PayrollRepository
}

// NewReportService returns a new instance of ReportService
func NewReportService(staff repository.StaffRepository, payroll repository.PayrollRepository) ReportService {
	return &reportService{staff: staff, payroll: payroll}
}

// staffCSVHeader mirrors the columns accepted by the bulk import, so an
// export can round-trip back in
var staffCSVHeader = []string{
	"staff_number", "first_name", "last_name", "email", "phone",
	"date_of_birth", "department_code", "position", "staff_type",
	"staff_category", "staff_grade", "hire_date", "nassit_number",
	"employment_type", "status",
}

func (s *reportService) ExportStaffCSV(ctx context.Context, filter StaffListFilter, w io.Writer) error {
	repoFilter := repository.StaffFilter{
		Status:    filter.Status,
		StaffType: filter.StaffType,
		Page:      1,
		Limit:     100000,
	}
	if filter.DepartmentID != "" {
		deptID, err := uuid.Parse(filter.DepartmentID)
		if err != nil {
			return errors.New("invalid department id")
		}
		repoFilter.DepartmentID = &deptID
	}

	staffList, _, err := s.staff.List(ctx, repoFilter)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(staffCSVHeader); err != nil {
		return err
	}
	for i := range staffList {
		member := &staffList[i]
		deptCode := ""
		if member.Department != nil {
			deptCode = member.Department.Code
		}
		record := []string{
			member.StaffNumber,
			member.FirstName,
			member.LastName,
			member.Email,
			member.Phone,
			member.DateOfBirth.Format("2006-01-02"),
			deptCode,
			member.Position,
			member.StaffType,
			member.StaffCategory,
			member.StaffGrade,
			member.HireDate.Format("2006-01-02"),
			member.NassitNumber,
			member.EmploymentType,
			member.Status,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var payrollXLSXHeader = []string{
	"Staff Number", "Name", "Department", "Basic Salary", "Allowances",
	"Gross Pay", "Income Tax", "NASSIT", "Loan Deductions", "Net Pay",
}

func (s *reportService) ExportPayrollXLSX(ctx context.Context, periodID string, w io.Writer) error {
	pid, err := uuid.Parse(periodID)
	if err != nil {
		return errors.New("invalid period id")
	}
	period, err := s.payroll.GetPeriod(ctx, pid)
	if err != nil {
		return errors.New("payroll period not found")
	}
	payslips, err := s.payroll.ListPayslipsForPeriod(ctx, pid)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := "Payroll"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", fmt.Sprintf("Payroll Report - %s", period.Name)); err != nil {
		return err
	}
	for i, title := range payrollXLSXHeader {
		cell, cellErr := excelize.CoordinatesToCellName(i+1, 2)
		if cellErr != nil {
			return cellErr
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}

	for rowIdx := range payslips {
		p := &payslips[rowIdx]
		staffNumber, name, dept := "", "", ""
		if p.Staff != nil {
			staffNumber = p.Staff.StaffNumber
			name = p.Staff.FullName()
			if p.Staff.Department != nil {
				dept = p.Staff.Department.Name
			}
		}
		values := []interface{}{
			staffNumber, name, dept,
			decimalCell(p.BasicSalary.StringFixed(2)),
			decimalCell(p.Allowances.StringFixed(2)),
			decimalCell(p.GrossPay.StringFixed(2)),
			decimalCell(p.IncomeTax.StringFixed(2)),
			decimalCell(p.NassitDeduction.StringFixed(2)),
			decimalCell(p.LoanDeductions.StringFixed(2)),
			decimalCell(p.NetPay.StringFixed(2)),
		}
		for colIdx, v := range values {
			cell, cellErr := excelize.CoordinatesToCellName(colIdx+1, rowIdx+3)
			if cellErr != nil {
				return cellErr
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// decimalCell converts a fixed-point string to a float cell value; Excel
// users expect numeric columns they can sum
func decimalCell(s string) interface{} {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return v
}
