package services

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/gomail.v2"

	"enrollment-portal/backend"
	"enrollment-portal/config"
	"enrollment-portal/errors"
	"enrollment-portal/models"
)

func ptr[T any](v T) *T { return &v }

func capturedEvent() models.PaymentEvent {
	amount := decimal.RequireFromString("120")
	return models.PaymentEvent{
		EventID:       "ev-1",
		Type:          models.EventCaptured,
		OrderID:       "ORD-1",
		TransactionID: "TX-1",
		ClassID:       ptr(int64(3)),
		UserID:        ptr(int64(8)),
		Amount:        &amount,
		Currency:      "USD",
		OccurredAt:    time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestPaymentEventsPublishesByOrderID(t *testing.T) {
	var mu sync.Mutex
	var topics, keys []string
	p := &PaymentEvents{topic: "portal.payments", publish: func(topic, key string, value interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		topics = append(topics, topic)
		keys = append(keys, key)
		_, ok := value.(models.PaymentEvent)
		assert.True(t, ok)
		return nil
	}}

	p.PublishPaymentEvent(context.Background(), capturedEvent())
	p.PublishPaymentEvent(context.Background(), models.PaymentEvent{Type: models.EventCaptureFailed, OrderID: "ORD-2"})
	p.Wait()

	assert.ElementsMatch(t, []string{"portal.payments", "portal.payments"}, topics)
	assert.ElementsMatch(t, []string{"ORD-1", "ORD-2"}, keys)
}

func TestPaymentEventsSwallowsFailures(t *testing.T) {
	p := &PaymentEvents{topic: "t", publish: func(string, string, interface{}) error {
		return errors.NewError("broker down")
	}}
	assert.NotPanics(t, func() {
		p.PublishPaymentEvent(context.Background(), capturedEvent())
		p.Wait()
	})
}

func TestGenerateReceipt(t *testing.T) {
	r := Receipt{
		Capture: CaptureFromEvent(capturedEvent()),
		Student: &models.ProfileRecord{FirstName: "Amal", LastName: "Perera", Email: "amal@example.com"},
		Class:   &models.ClassRecord{ID: 3, Name: ptr("Physics"), Grade: ptr("Grade 12")},
	}

	pdf, err := GenerateReceipt(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	rows := receiptRows(r)
	assert.Contains(t, rows, [2]string{"Class", "Grade 12 — Physics"})
	assert.Contains(t, rows, [2]string{"Student", "Amal Perera"})
	assert.Contains(t, rows, [2]string{"Amount", "120.00 USD"})
	assert.Contains(t, rows, [2]string{"Date", "01 May 2024 09:30 UTC"})
}

func TestReceiptRowsFallBackToIDs(t *testing.T) {
	rows := receiptRows(Receipt{Capture: models.CaptureResult{
		OrderID: "ORD-1",
		ClassID: ptr(int64(3)),
		UserID:  ptr(int64(8)),
	}})

	assert.Contains(t, rows, [2]string{"Transaction ID", "-"})
	assert.Contains(t, rows, [2]string{"Class", "Class 3"})
	assert.Contains(t, rows, [2]string{"Student", "User 8"})
	for _, row := range rows {
		assert.NotEqual(t, "Amount", row[0])
	}
}

func withSMTP(t *testing.T) *[]*gomail.Message {
	t.Helper()
	prevCfg, prevSend := config.AppConfig, dialAndSend
	config.AppConfig.SMTPHost = "smtp.example.com"
	config.AppConfig.SMTPPort = "2525"
	config.AppConfig.SMTPUser = "mailer@example.com"
	config.AppConfig.SMTPPass = "secret"
	config.AppConfig.EmailFrom = ""

	var sent []*gomail.Message
	dialAndSend = func(host string, port int, user, pass string, m *gomail.Message) error {
		assert.Equal(t, "smtp.example.com", host)
		assert.Equal(t, 2525, port)
		sent = append(sent, m)
		return nil
	}
	t.Cleanup(func() {
		config.AppConfig = prevCfg
		dialAndSend = prevSend
	})
	return &sent
}

func TestSendEmailDirect(t *testing.T) {
	sent := withSMTP(t)

	err := SendEmailDirect("amal@example.com", "Hello", "<p>hi</p>", Attachment{Name: "receipt_ORD-1.pdf", Data: []byte("%PDF-1.3")})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	m := (*sent)[0]
	assert.Equal(t, []string{"mailer@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"amal@example.com"}, m.GetHeader("To"))

	var raw bytes.Buffer
	_, err = m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "receipt_ORD-1.pdf")
}

func TestSendEmailDirectRequiresCredentials(t *testing.T) {
	withSMTP(t)
	config.AppConfig.SMTPPass = ""

	err := SendEmailDirect("amal@example.com", "Hello", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

type fakeSource struct {
	profile    models.ProfileRecord
	profileErr error
	classErr   error
	kinds      []string
}

func (f *fakeSource) GetProfile(_ context.Context, kind string, id int64) (models.ProfileRecord, error) {
	f.kinds = append(f.kinds, kind)
	return f.profile, f.profileErr
}

func (f *fakeSource) GetClass(_ context.Context, id int64) (models.ClassRecord, error) {
	if f.classErr != nil {
		return models.ClassRecord{}, f.classErr
	}
	return models.ClassRecord{ID: id, Name: ptr("Physics")}, nil
}

func TestReceiptNotifier(t *testing.T) {
	student := models.ProfileRecord{FirstName: "Amal", Email: "amal@example.com"}
	transient := &backend.TransportError{Err: errors.NewError("connection refused")}

	tt := []struct {
		name     string
		event    func() models.PaymentEvent
		source   *fakeSource
		sendErr  error
		wantErr  bool
		wantSent bool
	}{
		{"sends receipt", capturedEvent, &fakeSource{profile: student}, nil, false, true},
		{"class lookup failure still sends", capturedEvent, &fakeSource{profile: student, classErr: transient}, nil, false, true},
		{"no user id", func() models.PaymentEvent {
			ev := capturedEvent()
			ev.UserID = nil
			return ev
		}, &fakeSource{profile: student}, nil, false, false},
		{"unknown student", capturedEvent, &fakeSource{profileErr: errors.E(errors.NotFound, "students 8 not found")}, nil, false, false},
		{"student without email", capturedEvent, &fakeSource{profile: models.ProfileRecord{FirstName: "Amal"}}, nil, false, false},
		{"backend down is retried", capturedEvent, &fakeSource{profileErr: transient}, nil, true, false},
		{"smtp failure is retried", capturedEvent, &fakeSource{profile: student}, errors.NewError("smtp down"), true, true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var sentTo string
			var sentReceipt Receipt
			n := NewReceiptNotifier(tc.source)
			n.send = func(to string, r Receipt, pdf []byte) error {
				sentTo, sentReceipt = to, r
				assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
				return tc.sendErr
			}

			err := n.HandleCaptured(context.Background(), tc.event())
			assert.Equal(t, tc.wantErr, err != nil)
			if !tc.wantSent {
				assert.Empty(t, sentTo)
				return
			}
			assert.Equal(t, "amal@example.com", sentTo)
			assert.Equal(t, "TX-1", sentReceipt.Capture.TransactionID)
			assert.Equal(t, []string{backend.ProfileStudent}, tc.source.kinds)
			assert.Equal(t, tc.source.classErr == nil, sentReceipt.Class != nil)
		})
	}
}

func TestSendReceiptEmailEscapesNames(t *testing.T) {
	sent := withSMTP(t)
	r := Receipt{
		Capture: CaptureFromEvent(capturedEvent()),
		Student: &models.ProfileRecord{FirstName: "<b>Amal</b>"},
	}

	require.NoError(t, SendReceiptEmail("amal@example.com", r, []byte("%PDF-1.3")))
	require.Len(t, *sent, 1)

	var raw bytes.Buffer
	_, err := (*sent)[0].WriteTo(&raw)
	require.NoError(t, err)
	assert.NotContains(t, raw.String(), "<b>Amal</b>")
	assert.Equal(t, []string{"Payment receipt for order ORD-1"}, (*sent)[0].GetHeader("Subject"))

	assert.Error(t, SendReceiptEmail("", r, nil))
}

func TestExportEnrollments(t *testing.T) {
	enrolled := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	views := []models.EnrollmentView{
		{
			EnrollmentRecord: models.EnrollmentRecord{
				ID: 7, ClassID: 3, StudentID: ptr(int64(12)), StudentNumber: ptr("S-001"),
				PaymentID: ptr(int64(44)), Status: ptr(true), EnrolledAt: &enrolled,
			},
			Title:         "Physics",
			DisplayStatus: "active",
		},
		{
			EnrollmentRecord: models.EnrollmentRecord{ID: 8, ClassID: 4},
			Title:            "Class 4",
			DisplayStatus:    "unknown",
		},
	}

	data, err := ExportEnrollments(views)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(enrollmentSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Enrollment ID", rows[0][0])

	require.GreaterOrEqual(t, len(rows[1]), 9)
	assert.Equal(t, []string{"7", "Physics", "3", "12", "S-001", "", "44", "active", "2024-05-01 09:30"}, rows[1][:9])

	require.GreaterOrEqual(t, len(rows[2]), 8)
	assert.Equal(t, "", rows[2][3])
	assert.Equal(t, "unknown", rows[2][7])
}

type fakeCatalog struct {
	classes []models.ClassRecord
	err     error
}

func (f fakeCatalog) ListClasses(context.Context) ([]models.ClassRecord, error) {
	return f.classes, f.err
}

func TestPrepareIntent(t *testing.T) {
	fee := decimal.RequireFromString("49.5")
	zero := decimal.Zero
	catalog := fakeCatalog{classes: []models.ClassRecord{
		{ID: 3, Name: ptr("Physics"), Grade: ptr("Grade 12"), Fee: &fee},
		{ID: 4, Name: ptr("Free trial"), Fee: &zero},
		{ID: 5, Name: ptr("Unpriced")},
	}}

	tt := []struct {
		name    string
		catalog ClassCatalog
		req     CheckoutRequest
		kind    errors.Kind
	}{
		{"missing class", catalog, CheckoutRequest{UserID: 8}, errors.Invalid},
		{"missing user", catalog, CheckoutRequest{ClassID: 3}, errors.Invalid},
		{"unknown class", catalog, CheckoutRequest{ClassID: 99, UserID: 8}, errors.NotFound},
		{"zero fee", catalog, CheckoutRequest{ClassID: 4, UserID: 8}, errors.Invalid},
		{"no fee", catalog, CheckoutRequest{ClassID: 5, UserID: 8}, errors.Invalid},
		{"backend down", fakeCatalog{err: &backend.TransportError{Err: errors.NewError("refused")}}, CheckoutRequest{ClassID: 3, UserID: 8}, errors.OrderCreation},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := (&PaymentService{catalog: tc.catalog, currency: "USD"}).PrepareIntent(context.Background(), tc.req)
			assert.Equal(t, tc.kind, errors.KindOf(err))
		})
	}

	t.Run("priced from catalog", func(t *testing.T) {
		s := &PaymentService{catalog: catalog, currency: "USD"}
		intent, class, err := s.PrepareIntent(context.Background(), CheckoutRequest{ClassID: 3, UserID: 8, Currency: "lkr"})
		require.NoError(t, err)
		assert.True(t, fee.Equal(intent.Amount))
		assert.Equal(t, "LKR", intent.Currency)
		assert.Equal(t, int64(3), intent.ClassID)
		assert.Equal(t, int64(8), intent.UserID)
		assert.Equal(t, "Enrollment fee for Grade 12 — Physics", intent.Description)
		assert.Equal(t, int64(3), class.ID)
	})

	t.Run("default currency", func(t *testing.T) {
		s := &PaymentService{catalog: catalog, currency: "USD"}
		intent, _, err := s.PrepareIntent(context.Background(), CheckoutRequest{ClassID: 3, UserID: 8, Description: "Term 1"})
		require.NoError(t, err)
		assert.Equal(t, "USD", intent.Currency)
		assert.Equal(t, "Term 1", intent.Description)
	})
}
