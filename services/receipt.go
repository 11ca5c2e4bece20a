package services

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"enrollment-portal/models"
)

// Receipt is everything printed on a payment receipt. Student and Class are
// optional; the receipt falls back to ids when they could not be fetched.
type Receipt struct {
	Capture  models.CaptureResult
	Student  *models.ProfileRecord
	Class    *models.ClassRecord
	IssuedAt time.Time
}

// ReceiptFileName is the attachment and download name for an order.
func ReceiptFileName(orderID string) string {
	return fmt.Sprintf("receipt_%s.pdf", orderID)
}

// GenerateReceipt renders the receipt as a single A4 page.
func GenerateReceipt(r Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Payment Receipt "+r.Capture.OrderID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	if r.Student != nil {
		if name := r.Student.FullName(); name != "" {
			pdf.Cell(40, 10, tr(fmt.Sprintf("Dear %s,", name)))
			pdf.Ln(10)
		}
	}
	pdf.Cell(40, 10, "Thank you. Your payment has been received and your enrollment is being activated.")
	pdf.Ln(14)

	for _, row := range receiptRows(r) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(120, 8, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(40, 8, "This receipt was generated automatically. Keep it for your records.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func receiptRows(r Receipt) [][2]string {
	c := r.Capture
	issued := r.IssuedAt
	if issued.IsZero() {
		issued = c.CapturedAt
	}

	rows := [][2]string{
		{"Order ID", c.OrderID},
		{"Transaction ID", orDash(c.TransactionID)},
	}
	if c.PaymentID != nil {
		rows = append(rows, [2]string{"Payment ID", strconv.FormatInt(*c.PaymentID, 10)})
	}

	switch {
	case r.Class != nil:
		rows = append(rows, [2]string{"Class", r.Class.Label()})
	case c.ClassID != nil:
		rows = append(rows, [2]string{"Class", fmt.Sprintf("Class %d", *c.ClassID)})
	}

	switch {
	case r.Student != nil && r.Student.FullName() != "":
		rows = append(rows, [2]string{"Student", r.Student.FullName()})
	case c.UserID != nil:
		rows = append(rows, [2]string{"Student", fmt.Sprintf("User %d", *c.UserID)})
	}

	if c.Amount != nil {
		rows = append(rows, [2]string{"Amount", c.Amount.StringFixed(2) + " " + c.Currency})
	}
	rows = append(rows, [2]string{"Date", issued.UTC().Format("02 Jan 2006 15:04 MST")})
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
