package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportStaffCSVRoundTripsImportColumns(t *testing.T) {
	staff := newMemStaffRepo()
	dept := model.Department{ID: uuid.New(), Name: "Computer Science", Code: "CS"}
	staff.add(model.Staff{
		ID:             uuid.New(),
		StaffNumber:    "SU0001",
		FirstName:      "Fatmata",
		LastName:       "Koroma",
		Email:          "fkoroma@example.edu",
		Phone:          "+23276000001",
		DateOfBirth:    time.Date(1988, 6, 2, 0, 0, 0, 0, time.UTC),
		DepartmentID:   dept.ID,
		Department:     &dept,
		Position:       "Lecturer",
		StaffType:      model.StaffTypeAcademic,
		StaffCategory:  model.CategorySenior,
		StaffGrade:     "L2",
		HireDate:       time.Date(2016, 9, 1, 0, 0, 0, 0, time.UTC),
		NassitNumber:   "NS123456",
		EmploymentType: model.EmploymentFullTime,
		Status:         model.StaffStatusActive,
	})

	svc := NewReportService(staff, newMemPayrollRepo())

	var buf bytes.Buffer
	require.NoError(t, svc.ExportStaffCSV(context.Background(), StaffListFilter{}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// The header mirrors the bulk import columns, so exports can be re-imported
	assert.Equal(t, staffCSVHeader, records[0])

	row := records[1]
	assert.Equal(t, "SU0001", row[0])
	assert.Equal(t, "Fatmata", row[1])
	assert.Equal(t, "1988-06-02", row[5])
	assert.Equal(t, "CS", row[6])
	assert.Equal(t, model.StaffTypeAcademic, row[8])
	assert.Equal(t, "2016-09-01", row[11])
	assert.Equal(t, model.StaffStatusActive, row[14])
}

func TestExportStaffCSVRejectsBadDepartmentID(t *testing.T) {
	svc := NewReportService(newMemStaffRepo(), newMemPayrollRepo())

	var buf bytes.Buffer
	err := svc.ExportStaffCSV(context.Background(), StaffListFilter{DepartmentID: "not-a-uuid"}, &buf)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestExportPayrollXLSXWritesWorkbook(t *testing.T) {
	staff := newMemStaffRepo()
	payroll := newMemPayrollRepo()

	periodID := uuid.New()
	payroll.periods[periodID] = model.PayrollPeriod{ID: periodID, Name: "January 2026"}

	member := model.Staff{
		ID:          uuid.New(),
		StaffNumber: "SU0001",
		FirstName:   "Fatmata",
		LastName:    "Koroma",
	}
	payroll.payslips = append(payroll.payslips, model.Payslip{
		ID:              uuid.New(),
		StaffID:         member.ID,
		Staff:           &member,
		PeriodID:        periodID,
		BasicSalary:     dec("2000000"),
		Allowances:      dec("300000"),
		GrossPay:        dec("2300000"),
		IncomeTax:       dec("300000"),
		NassitDeduction: dec("100000"),
		LoanDeductions:  dec("0"),
		NetPay:          dec("1900000"),
	})

	svc := NewReportService(staff, payroll)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportPayrollXLSX(context.Background(), periodID.String(), &buf))

	workbook, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer workbook.Close()

	title, err := workbook.GetCellValue("Payroll", "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "January 2026")

	header, err := workbook.GetCellValue("Payroll", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Staff Number", header)

	staffNumber, err := workbook.GetCellValue("Payroll", "A3")
	require.NoError(t, err)
	assert.Equal(t, "SU0001", staffNumber)

	name, err := workbook.GetCellValue("Payroll", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Fatmata Koroma", name)

	netPay, err := workbook.GetCellValue("Payroll", "J3")
	require.NoError(t, err)
	assert.Equal(t, "1900000", netPay)
}

func TestExportPayrollXLSXUnknownPeriod(t *testing.T) {
	svc := NewReportService(newMemStaffRepo(), newMemPayrollRepo())

	var buf bytes.Buffer
	err := svc.ExportPayrollXLSX(context.Background(), uuid.New().String(), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
