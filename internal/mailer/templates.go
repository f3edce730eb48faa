package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/stm32-workshop/backend/internal/models"
)

// Email templates for the three lifecycle events. All interpolated values go
// through html/template so names and rejection reasons cannot inject markup.

const processingSubject = "Registration Received – STM32 Mastering Workshop"
const confirmationSubject = "Confirmed! STM32 Mastering Workshop – Entry QR Code"
const rejectionSubject = "STM32 Workshop – Registration Status Update"

var processingTmpl = template.Must(template.New("processing").Parse(`
<div style="font-family:'Segoe UI',Arial,sans-serif;padding:40px 20px;">
  <div style="max-width:600px;margin:0 auto;border:1px solid #312e81;border-radius:16px;overflow:hidden;">
    <div style="background:#4f46e5;padding:32px;text-align:center;">
      <h1 style="margin:0;color:#fff;font-size:24px;">STM32 MASTERING WORKSHOP</h1>
    </div>
    <div style="padding:32px;">
      <h2 style="margin-top:0;">Registration Received</h2>
      <p>Dear <strong>{{.Name}}</strong>,</p>
      <p>Thank you for registering for the STM32 Mastering Workshop. Your application
      is being processed. You will receive a confirmation email once your payment is verified.</p>
      <table style="margin-top:12px;border-collapse:collapse;">
        <tr><td style="padding:4px 16px 4px 0;">Package:</td><td><strong>{{.Package}}</strong></td></tr>
        <tr><td style="padding:4px 16px 4px 0;">Transaction ID:</td><td>{{.TransactionID}}</td></tr>
      </table>
    </div>
  </div>
</div>`))

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<div style="font-family:'Segoe UI',Arial,sans-serif;padding:40px 20px;">
  <div style="max-width:600px;margin:0 auto;border:1px solid #312e81;border-radius:16px;overflow:hidden;">
    <div style="background:#059669;padding:32px;text-align:center;">
      <h1 style="margin:0;color:#fff;font-size:24px;">STM32 MASTERING WORKSHOP</h1>
    </div>
    <div style="padding:32px;">
      <h2 style="margin-top:0;">Spot Confirmed</h2>
      <p>Dear <strong>{{.Name}}</strong>,</p>
      <p>Your registration has been <strong>confirmed</strong>. Your unique entry QR code
      is attached to this email. Present it at the entrance on both workshop days.</p>
    </div>
  </div>
</div>`))

var rejectionTmpl = template.Must(template.New("rejection").Parse(`
<div style="font-family:'Segoe UI',Arial,sans-serif;padding:40px 20px;">
  <div style="max-width:600px;margin:0 auto;border:1px solid #312e81;border-radius:16px;overflow:hidden;">
    <div style="background:#dc2626;padding:32px;text-align:center;">
      <h1 style="margin:0;color:#fff;font-size:24px;">STM32 MASTERING WORKSHOP</h1>
    </div>
    <div style="padding:32px;">
      <h2 style="margin-top:0;">Registration Status Update</h2>
      <p>Dear {{.Name}},</p>
      <div style="border-left:4px solid #dc2626;padding:12px 20px;margin:24px 0;">
        <p style="margin:0;">{{.Reason}}</p>
      </div>
    </div>
  </div>
</div>`))

// ProcessingEmail renders the "application received" email.
func ProcessingEmail(reg *models.Registration) (subject, html string, err error) {
	pkg := "Without Kit (₹699)"
	if reg.KitOption == models.KitWithKit {
		pkg = "With Kit (₹1200)"
	}
	html, err = render(processingTmpl, map[string]string{
		"Name":          reg.DisplayName(),
		"Package":       pkg,
		"TransactionID": reg.TransactionID,
	})
	return processingSubject, html, err
}

// ConfirmationEmail renders the confirmation email; the QR image travels as
// an attachment, not inline.
func ConfirmationEmail(reg *models.Registration) (subject, html string, err error) {
	html, err = render(confirmationTmpl, map[string]string{
		"Name": reg.DisplayName(),
	})
	return confirmationSubject, html, err
}

// RejectionEmail renders the rejection email with the recorded reason.
func RejectionEmail(reg *models.Registration) (subject, html string, err error) {
	html, err = render(rejectionTmpl, map[string]string{
		"Name":   reg.DisplayName(),
		"Reason": reg.RejectionReason,
	})
	return rejectionSubject, html, err
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
