package normalizer

import (
	"strconv"
	"strings"

	"enrollment-portal/models"
)

// ClassDisplay is the admin-facing class title: joined subject names, then the
// class name, then the grade, then the class id, then "-".
func ClassDisplay(e models.EnrollmentRecord) string {
	if len(e.Subjects) > 0 {
		return strings.Join(e.Subjects, ", ")
	}
	if e.ClassName != nil && *e.ClassName != "" {
		return *e.ClassName
	}
	if e.ClassGrade != nil && *e.ClassGrade != "" {
		return *e.ClassGrade
	}
	if e.ClassID != 0 {
		return strconv.FormatInt(e.ClassID, 10)
	}
	return "-"
}

// View attaches the display title and status label to a record.
func View(e models.EnrollmentRecord) models.EnrollmentView {
	return models.EnrollmentView{
		EnrollmentRecord: e,
		Title:            ClassDisplay(e),
		DisplayStatus:    e.StatusLabel(),
	}
}

// Views is View over a list.
func Views(list []models.EnrollmentRecord) []models.EnrollmentView {
	out := make([]models.EnrollmentView, 0, len(list))
	for _, e := range list {
		out = append(out, View(e))
	}
	return out
}

// Enrich fills class fields the enrollment lacks from a class record. Fields
// the enrollment already carries win.
func Enrich(e models.EnrollmentRecord, c models.ClassRecord) models.EnrollmentRecord {
	if e.ClassName == nil {
		e.ClassName = c.Name
	}
	if e.ClassGrade == nil {
		e.ClassGrade = c.Grade
	}
	if len(e.Subjects) == 0 {
		e.Subjects = c.Subjects
	}
	if e.ClassID == 0 {
		e.ClassID = c.ID
	}
	return e
}
