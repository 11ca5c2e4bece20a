package normalizer

import (
	"fmt"

	"enrollment-portal/errors"
	"enrollment-portal/models"
)

var (
	profileID     = Keys("id", "userId", "user_id", "employeeId")
	joiningDate   = Keys("joiningDate", "j_date", "join_date", "joinDate", "joining_date")
	birthday      = Keys("birthday", "b_day", "bday")
	createdAt     = Keys("createdAt", "created_at")
	updatedAt     = Keys("updatedAt", "updated_at")
	firstName     = Keys("firstName", "first_name", "first")
	lastName      = Keys("lastName", "last_name", "last")
	position      = Keys("position", "job_title")
	profileNumber = Keys("studentNumber", "student_number")
)

// NormalizeProfile maps a student or admin profile. Name, contact and role
// fields default to "" rather than nil since every view renders them.
func NormalizeProfile(raw any) (models.ProfileRecord, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.ProfileRecord{}, errors.E(errors.Malformed,
			fmt.Sprintf("profile payload is %T, want object", raw), nil)
	}

	const rec = "profile"
	return models.ProfileRecord{
		ID:            intField(obj, rec, "id", profileID),
		FirstName:     valueOrEmpty(stringField(obj, rec, "firstName", firstName)),
		LastName:      valueOrEmpty(stringField(obj, rec, "lastName", lastName)),
		Email:         valueOrEmpty(stringField(obj, rec, "email", Keys("email"))),
		Phone:         valueOrEmpty(stringField(obj, rec, "phone", Keys("phone"))),
		Address:       valueOrEmpty(stringField(obj, rec, "address", Keys("address"))),
		Role:          valueOrEmpty(stringField(obj, rec, "role", Keys("role"))),
		Position:      stringField(obj, rec, "position", position),
		StudentNumber: stringField(obj, rec, "studentNumber", profileNumber),
		JoiningDate:   timeField(obj, rec, "joiningDate", joiningDate),
		Birthday:      timeField(obj, rec, "birthday", birthday),
		CreatedAt:     timeField(obj, rec, "createdAt", createdAt),
		UpdatedAt:     timeField(obj, rec, "updatedAt", updatedAt),
		Raw:           obj,
	}, nil
}
