package normalizer

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrollment-portal/errors"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestStudentNumberAliasPrecedence(t *testing.T) {
	rec, err := NormalizeEnrollment(decode(t, `{"studentNumber":"S-1","student_number":"S-2"}`))
	require.NoError(t, err)
	require.NotNil(t, rec.StudentNumber)
	assert.Equal(t, "S-1", *rec.StudentNumber)

	rec, err = NormalizeEnrollment(decode(t, `{"student":{"student_number":"S-9"},"payment":{"studentNumber":"S-3"}}`))
	require.NoError(t, err)
	require.NotNil(t, rec.StudentNumber)
	assert.Equal(t, "S-9", *rec.StudentNumber)
}

func TestEmptyStringFallsThroughToNextAlias(t *testing.T) {
	rec, err := NormalizeEnrollment(decode(t, `{"studentNumber":"","student_no":1234,"class_id":null,"classId":"7"}`))
	require.NoError(t, err)
	require.NotNil(t, rec.StudentNumber)
	assert.Equal(t, "1234", *rec.StudentNumber)
	assert.Equal(t, int64(7), rec.ClassID)
}

func TestStatusCoercion(t *testing.T) {
	tt := []struct {
		name string
		raw  string
		want *bool
	}{
		{"bool true", `{"status":true}`, ptr(true)},
		{"number one", `{"status":1}`, ptr(true)},
		{"yes", `{"status":"yes"}`, ptr(true)},
		{"uppercase active", `{"active":"ACTIVE"}`, ptr(true)},
		{"string false", `{"status":"false"}`, ptr(false)},
		{"number zero", `{"isActive":0}`, ptr(false)},
		{"no", `{"state":"no"}`, ptr(false)},
		{"missing", `{}`, nil},
		{"padded", `{"status_flag":"  True "}`, ptr(true)},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := NormalizeEnrollment(decode(t, tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, rec.Status)
		})
	}
}

func TestStatusAliasOrder(t *testing.T) {
	rec, err := NormalizeEnrollment(decode(t, `{"status":"","active":false,"isActive":true}`))
	require.NoError(t, err)
	require.NotNil(t, rec.Status)
	assert.False(t, *rec.Status)
}

func TestNormalizeListShapes(t *testing.T) {
	tt := []struct {
		name string
		raw  string
		want int
	}{
		{"array", `[{"id":1},{"id":2}]`, 2},
		{"data wrapper", `{"data":[{"id":1},{"id":2},{"id":3}]}`, 3},
		{"enrollments wrapper", `{"enrollments":[{"id":1}]}`, 1},
		{"data wrapping one record", `{"data":{"id":1,"classId":2}}`, 1},
		{"single object", `{"id":5,"classId":2}`, 1},
		{"null", `null`, 0},
		{"scalar", `42`, 0},
		{"bad elements skipped", `[{"id":1},"oops",3,{"id":2}]`, 2},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, NormalizeList(decode(t, tc.raw)), tc.want)
		})
	}
}

func TestSingleObjectMatchesArrayOfOne(t *testing.T) {
	obj := `{"enrollment_id":1,"student_id":8,"classEntity":{"id":4,"grade":"Grade 10","subjects":[{"name":"Math"}]},"isActive":"false","enrollmentDate":"2024-02-01T10:00:00Z"}`

	bare := NormalizeList(decode(t, obj))
	require.Len(t, bare, 1)
	assert.Equal(t, bare, NormalizeList(decode(t, "["+obj+"]")))
	assert.Equal(t, bare, NormalizeList(decode(t, `{"data":`+obj+`}`)))
	assert.Equal(t, bare, NormalizeList(decode(t, `{"enrollments":[`+obj+`]}`)))

	rec := bare[0]
	assert.Equal(t, int64(1), rec.ID)
	require.NotNil(t, rec.StudentID)
	assert.Equal(t, int64(8), *rec.StudentID)
	assert.Equal(t, int64(4), rec.ClassID)
	require.NotNil(t, rec.Status)
	assert.False(t, *rec.Status)
	assert.Equal(t, "Math", ClassDisplay(rec))
}

func TestItemsUnwrapsSingleRecord(t *testing.T) {
	items := Items(decode(t, `{"data":{"id":9}}`))
	require.Len(t, items, 1)
	m, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "id")
	assert.NotContains(t, m, "data")
}

func TestMissingClassGradeIsNil(t *testing.T) {
	rec, err := NormalizeEnrollment(decode(t, `{"id":3,"classEntity":{"id":4,"name":"Algebra"}}`))
	require.NoError(t, err)
	assert.Nil(t, rec.ClassGrade)
	require.NotNil(t, rec.ClassName)
	assert.Equal(t, "Algebra", *rec.ClassName)
	assert.Equal(t, int64(4), rec.ClassID)
	assert.Equal(t, "Algebra", ClassDisplay(rec))
}

func TestNormalizeEnrollmentRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"x"`, `null`, `12`} {
		_, err := NormalizeEnrollment(decode(t, raw))
		assert.True(t, errors.IsKind(err, errors.Malformed), raw)
	}
}

func TestClassDisplayPrecedence(t *testing.T) {
	tt := []struct {
		name string
		raw  string
		want string
	}{
		{"subjects beat name", `{"className":"Foo","classEntity":{"subjects":[{"name":"Math"},{"subjectName":"Physics"}]}}`, "Math, Physics"},
		{"string subjects", `{"subjects":["Chemistry"]}`, "Chemistry"},
		{"name", `{"class_name":"Foo"}`, "Foo"},
		{"grade", `{"grade":"Grade 10"}`, "Grade 10"},
		{"id", `{"classId":12}`, "12"},
		{"nothing", `{}`, "-"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := NormalizeEnrollment(decode(t, tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ClassDisplay(rec))
		})
	}
}

func TestTimestamps(t *testing.T) {
	tt := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `{"enrolledAt":"2024-03-01T10:00:00Z"}`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"no zone", `{"enrolled_at":"2024-03-01T10:00:00.5"}`, time.Date(2024, 3, 1, 10, 0, 0, 500000000, time.UTC)},
		{"date", `{"enrollmentDate":"2024-03-01"}`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"epoch millis", `{"enrolledDate":1709287200000}`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"array", `{"enrolledAt":[2024,3,1,10,0]}`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := NormalizeEnrollment(decode(t, tc.raw))
			require.NoError(t, err)
			require.NotNil(t, rec.EnrolledAt)
			assert.True(t, tc.want.Equal(*rec.EnrolledAt), rec.EnrolledAt.String())
		})
	}
}

func TestNormalizeClass(t *testing.T) {
	c, err := NormalizeClass(decode(t, `{"class_id":9,"className":"Physics A","classGrade":"Grade 11","price":"1500.50"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.ID)
	require.NotNil(t, c.Fee)
	assert.Equal(t, "1500.5", c.Fee.String())
	assert.Equal(t, "Grade 11 — Physics A", c.Label())

	classes := NormalizeClasses(decode(t, `{"data":[{"id":1},{"_id":"2","fee":10}]}`))
	require.Len(t, classes, 2)
	found, ok := FindClass(classes, 2)
	require.True(t, ok)
	assert.Equal(t, "10", found.Fee.String())
	assert.Equal(t, "Class 1", classes[0].Label())
}

func TestNormalizeProfile(t *testing.T) {
	p, err := NormalizeProfile(decode(t, `{"user_id":4,"first_name":"ada","last":"Lovelace","j_date":"2020-01-02","job_title":"Tutor"}`))
	require.NoError(t, err)
	require.NotNil(t, p.ID)
	assert.Equal(t, int64(4), *p.ID)
	assert.Equal(t, "ada Lovelace", p.FullName())
	assert.Equal(t, "AL", p.Initials())
	require.NotNil(t, p.Position)
	assert.Equal(t, "Tutor", *p.Position)
	require.NotNil(t, p.JoiningDate)
	assert.Equal(t, 2020, p.JoiningDate.Year())
	assert.Nil(t, p.Birthday)

	empty, err := NormalizeProfile(decode(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, "N/A", empty.Initials())
}

func TestNormalizeOrderAndCapture(t *testing.T) {
	o, err := NormalizeOrder(decode(t, `{"id":77,"paypalOrderId":"ORD-1","approvalUrl":"https://pay.example/approve"}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", o.OrderID)
	assert.Equal(t, "https://pay.example/approve", o.ApprovalURL)
	require.NotNil(t, o.PaymentID)
	assert.Equal(t, int64(77), *o.PaymentID)

	_, err = NormalizeOrder(decode(t, `{"paypalOrderId":"ORD-1"}`))
	assert.True(t, errors.IsKind(err, errors.Malformed))

	c, err := NormalizeCapture(decode(t, `{"paypalTransactionId":"TX-1","paymentCompleted":"true","amount":25.00,"currency":"USD"}`), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", c.OrderID)
	assert.Equal(t, "TX-1", c.TransactionID)
	assert.True(t, c.Completed)
	require.NotNil(t, c.Amount)
	assert.Equal(t, "25", c.Amount.String())
}

func TestEnrichKeepsEnrollmentFields(t *testing.T) {
	rec, err := NormalizeEnrollment(decode(t, `{"classId":3,"className":"Own"}`))
	require.NoError(t, err)
	c, err := NormalizeClass(decode(t, `{"id":3,"name":"Other","grade":"G9","subjects":["Bio"]}`))
	require.NoError(t, err)

	merged := Enrich(rec, c)
	assert.Equal(t, "Own", *merged.ClassName)
	assert.Equal(t, "G9", *merged.ClassGrade)
	assert.Equal(t, "Bio", View(merged).Title)
	assert.Equal(t, "unknown", View(merged).DisplayStatus)
}

func ptr[T any](v T) *T { return &v }
