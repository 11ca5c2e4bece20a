package normalizer

import (
	"fmt"

	"enrollment-portal/errors"
	"enrollment-portal/models"
)

var (
	enrollmentID = Keys("id", "ID", "enrollmentId", "enrollment_id")
	userID       = Keys("user_id", "userId", "user.id", "user.userId")
	studentID    = Keys("student_id", "studentId", "student.id")

	studentNumber = Keys(
		"studentNumber", "student_number", "studentNo", "student_no",
		"student.studentNumber", "student.student_number", "student.number", "student.student_no",
		"classEntity.studentNumber", "classEntity.student_number",
		"classEntity.student.studentNumber", "classEntity.student.student_number",
		"payment.studentNumber", "payment.student_number",
	)

	enrollmentClassID = Keys("class_id", "classId", "classEntity.id", "class.id")
	className         = Keys("classEntity.name", "class_name", "className", "name", "class.name")
	classGrade        = Keys("classEntity.grade", "class_grade", "classGrade", "grade", "payment.grade")
	paymentID         = Keys("payment_id", "paymentId", "payment.id")
	status            = Keys("status", "active", "isActive", "active_flag", "status_flag", "state")
	enrolledAt        = Keys("enrolled_at", "enrolledAt", "enrolledDate", "enrollmentDate", "enrolled_date")
	expiresAt         = Keys("expires_at", "expiresAt")

	subjects = Keys(
		"classEntity.subjects", "classEntity.subjects_list", "classEntity.subject",
		"class_entity.subjects", "class.subjects", "subjects", "classSubjects",
	)
	subjectName = Keys("name", "subjectName", "subject_name", "subject", "title")
)

// NormalizeEnrollment maps one raw backend enrollment onto the canonical
// record. It fails only when raw is not a JSON object.
func NormalizeEnrollment(raw any) (models.EnrollmentRecord, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.EnrollmentRecord{}, errors.E(errors.Malformed,
			fmt.Sprintf("enrollment payload is %T, want object", raw), nil)
	}

	const rec = "enrollment"
	rawCopy := make(map[string]any, len(obj))
	for k, v := range obj {
		rawCopy[k] = v
	}

	e := models.EnrollmentRecord{
		UserID:        intField(obj, rec, "userId", userID),
		StudentID:     intField(obj, rec, "studentId", studentID),
		StudentNumber: stringField(obj, rec, "studentNumber", studentNumber),
		ClassName:     stringField(obj, rec, "className", className),
		ClassGrade:    stringField(obj, rec, "classGrade", classGrade),
		Subjects:      subjectList(obj),
		PaymentID:     intField(obj, rec, "paymentId", paymentID),
		Status:        statusField(obj, rec, "status", status),
		EnrolledAt:    timeField(obj, rec, "enrolledAt", enrolledAt),
		Raw:           rawCopy,
	}
	if id := intField(obj, rec, "id", enrollmentID); id != nil {
		e.ID = *id
	}
	if id := intField(obj, rec, "classId", enrollmentClassID); id != nil {
		e.ClassID = *id
	}
	// expiry is optional in every backend version; no gap logging
	if v, ok := expiresAt.First(obj); ok {
		if ts, ok := asTime(v); ok {
			e.ExpiresAt = &ts
		}
	}
	return e, nil
}

// subjectList reads the first usable subjects alias. Elements may be plain
// names or subject objects; anything else is dropped.
func subjectList(obj map[string]any) []string {
	v, ok := subjects.First(obj)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.(string); ok {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch t := it.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]any:
			if name, ok := subjectName.First(t); ok {
				if s, ok := asString(name); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
