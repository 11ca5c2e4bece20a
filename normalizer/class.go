package normalizer

import (
	"fmt"

	"enrollment-portal/errors"
	"enrollment-portal/models"
)

var (
	classID     = Keys("class_id", "id", "classId", "_id", "ID", "ClassId")
	classNameA  = Keys("name", "className", "class_name")
	classGradeA = Keys("grade", "classGrade", "class_grade")
	classFee    = Keys("fee", "price", "amount", "cost")
)

// NormalizeClass maps a raw class object. Subjects follow the same aliases
// used for enrollments.
func NormalizeClass(raw any) (models.ClassRecord, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.ClassRecord{}, errors.E(errors.Malformed,
			fmt.Sprintf("class payload is %T, want object", raw), nil)
	}

	const rec = "class"
	c := models.ClassRecord{
		Name:     stringField(obj, rec, "name", classNameA),
		Grade:    stringField(obj, rec, "grade", classGradeA),
		Subjects: subjectList(obj),
		Raw:      obj,
	}
	if id := intField(obj, rec, "id", classID); id != nil {
		c.ID = *id
	}
	if v, ok := classFee.First(obj); ok {
		if d, ok := asDecimal(v); ok {
			c.Fee = &d
		}
	}
	if c.Fee == nil {
		gap(rec, "fee")
	}
	return c, nil
}

// NormalizeClasses coerces any class list payload into records, skipping
// malformed elements.
func NormalizeClasses(payload any) []models.ClassRecord {
	return normalizeAll(payload, "class", NormalizeClass)
}

// FindClass returns the class with the given id, if the list carries it.
func FindClass(classes []models.ClassRecord, id int64) (models.ClassRecord, bool) {
	for _, c := range classes {
		if c.ID == id {
			return c, true
		}
	}
	return models.ClassRecord{}, false
}
