package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"enrollment-portal/models"
)

const enrollmentSheet = "Enrollments"

var enrollmentHeaders = []interface{}{
	"Enrollment ID", "Class", "Class ID", "Student ID", "Student Number",
	"User ID", "Payment ID", "Status", "Enrolled At", "Expires At",
}

// ExportEnrollments writes the enrollment views to a single-sheet workbook.
// Unknown values are left as empty cells, never as zero.
func ExportEnrollments(views []models.EnrollmentView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", enrollmentSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(enrollmentSheet, "A1", &enrollmentHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(enrollmentSheet, 1, 1, style)
	}
	_ = f.SetColWidth(enrollmentSheet, "A", "J", 18)
	_ = f.SetColWidth(enrollmentSheet, "B", "B", 36)

	for i, v := range views {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			v.ID,
			v.Title,
			v.ClassID,
			intCell(v.StudentID),
			stringCell(v.StudentNumber),
			intCell(v.UserID),
			intCell(v.PaymentID),
			v.DisplayStatus,
			timeCell(v.EnrolledAt),
			timeCell(v.ExpiresAt),
		}
		if err := f.SetSheetRow(enrollmentSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func intCell(v *int64) interface{} {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func stringCell(v *string) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func timeCell(v *time.Time) interface{} {
	if v == nil {
		return ""
	}
	return v.UTC().Format("2006-01-02 15:04")
}
