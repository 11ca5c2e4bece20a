package models

import "time"

// EnrollmentRecord is the canonical enrollment shape. A nil pointer means the
// backend did not send any usable alias for that field.
type EnrollmentRecord struct {
	ID            int64          `json:"id"`
	UserID        *int64         `json:"userId"`
	StudentID     *int64         `json:"studentId"`
	StudentNumber *string        `json:"studentNumber"`
	ClassID       int64          `json:"classId"`
	ClassName     *string        `json:"className"`
	ClassGrade    *string        `json:"classGrade"`
	Subjects      []string       `json:"subjects,omitempty"`
	PaymentID     *int64         `json:"paymentId"`
	Status        *bool          `json:"status"`
	EnrolledAt    *time.Time     `json:"enrolledAt"`
	ExpiresAt     *time.Time     `json:"expiresAt,omitempty"`
	Raw           map[string]any `json:"raw"`
}

// StatusLabel renders the tri-state status: unknown is not inactive.
func (e EnrollmentRecord) StatusLabel() string {
	switch {
	case e.Status == nil:
		return "unknown"
	case *e.Status:
		return "active"
	default:
		return "inactive"
	}
}

// EnrollmentView is what listing endpoints return: the canonical record plus
// the display title computed by the business display policy.
type EnrollmentView struct {
	EnrollmentRecord
	Title         string `json:"title"`
	DisplayStatus string `json:"displayStatus"`
}
