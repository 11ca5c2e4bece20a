package services

import (
	"fmt"
	"html"

	"enrollment-portal/models"
)

// SendReceiptEmail mails the capture receipt to the student with the PDF
// attached.
func SendReceiptEmail(to string, r Receipt, pdf []byte) error {
	if to == "" {
		return fmt.Errorf("recipient email is required")
	}

	name := "Student"
	if r.Student != nil && r.Student.FullName() != "" {
		name = r.Student.FullName()
	}
	className := "your class"
	if r.Class != nil {
		className = r.Class.Label()
	} else if r.Capture.ClassID != nil {
		className = fmt.Sprintf("Class %d", *r.Capture.ClassID)
	}

	emailBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; border-radius: 5px; }
        .content { background-color: #f9f9f9; padding: 20px; margin-top: 20px; border-radius: 5px; }
        .payment-info { background-color: #e8f5e9; padding: 15px; margin: 15px 0; border-left: 4px solid #4CAF50; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h2>Payment Received</h2></div>
        <div class="content">
            <p>Dear <strong>%s</strong>,</p>
            <p>We received your payment for <strong>%s</strong>. Your enrollment will be active shortly.</p>
            <div class="payment-info">
                <p><strong>Order ID:</strong> %s</p>
                <p><strong>Transaction ID:</strong> %s</p>
                <p><strong>Amount:</strong> %s</p>
            </div>
            <p>Your receipt is attached to this email.</p>
            <p>Best regards,<br/>Enrollment Office</p>
        </div>
    </div>
</body>
</html>
	`, html.EscapeString(name), html.EscapeString(className),
		html.EscapeString(r.Capture.OrderID), html.EscapeString(orDash(r.Capture.TransactionID)),
		html.EscapeString(amountText(r.Capture)))

	subject := fmt.Sprintf("Payment receipt for order %s", r.Capture.OrderID)

	return SendEmailDirect(to, subject, emailBody, Attachment{
		Name: ReceiptFileName(r.Capture.OrderID),
		Data: pdf,
	})
}

func amountText(c models.CaptureResult) string {
	if c.Amount == nil {
		return "-"
	}
	return c.Amount.StringFixed(2) + " " + c.Currency
}
