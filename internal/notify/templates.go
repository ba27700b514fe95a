package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	texttemplate "text/template"
	"time"
)

const (
	subjectWelcome      = "Welcome to Marine Refuge Updates! 🌊"
	subjectConfirmation = "✅ We've Received Your Message - Marine Refuge"
)

// subjectAdmin 管理员通知标题
func subjectAdmin(first, last, email string) string {
	return fmt.Sprintf("📬 New Contact: %s %s - %s", first, last, email)
}

type welcomeData struct {
	Year int
}

type adminData struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Submitted string
	Message   string
	IPAddress string
	Source    string
}

type confirmationData struct {
	FirstName string
	Submitted string
	Year      int
}

var (
	welcomeHTMLTmpl      = htmltemplate.Must(htmltemplate.New("welcome").Parse(welcomeHTML))
	welcomeTextTmpl      = texttemplate.Must(texttemplate.New("welcome").Parse(welcomeText))
	adminHTMLTmpl        = htmltemplate.Must(htmltemplate.New("admin").Parse(adminHTML))
	confirmationHTMLTmpl = htmltemplate.Must(htmltemplate.New("confirmation").Parse(confirmationHTML))
)

type templateExecutor interface {
	Execute(w io.Writer, data any) error
}

func render(tmpl templateExecutor, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatSubmitted 邮件中显示的提交时间
func formatSubmitted(t time.Time) string {
	return t.UTC().Format("January 2, 2006 at 3:04 PM UTC")
}

const welcomeText = `Welcome to Marine Refuge!

Thank you for subscribing to our newsletter. We're thrilled to have you join our community dedicated to marine conservation and ocean protection.

What you can expect:
- Latest updates on marine conservation efforts
- Educational content about ocean ecosystems
- News about our projects and initiatives
- Tips on how you can help protect our oceans

Stay tuned for our upcoming newsletters!

Best regards,
The Marine Refuge Team

---
If you wish to unsubscribe, please reply to this email with "unsubscribe" in the subject line.`

const welcomeHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Welcome to Marine Refuge</title>
  <style>
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f4f4f4; }
    .container { background-color: #ffffff; border-radius: 10px; padding: 40px; box-shadow: 0 2px 10px rgba(0, 0, 0, 0.1); }
    .header { text-align: center; margin-bottom: 30px; }
    .header h1 { color: #0077be; margin-bottom: 10px; font-size: 28px; }
    .features { background-color: #e8f4f8; border-left: 4px solid #0077be; padding: 20px; margin: 20px 0; border-radius: 5px; }
    .footer { text-align: center; margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #777; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div style="font-size: 32px;">🌊</div>
      <h1>Welcome to Marine Refuge!</h1>
    </div>
    <div class="content">
      <p>Thank you for subscribing to our newsletter. We're thrilled to have you join our community dedicated to marine conservation and ocean protection.</p>
      <div class="features">
        <strong>What you can expect:</strong>
        <ul>
          <li>🐠 Latest updates on marine conservation efforts</li>
          <li>📚 Educational content about ocean ecosystems</li>
          <li>🌍 News about our projects and initiatives</li>
          <li>💡 Tips on how you can help protect our oceans</li>
        </ul>
      </div>
      <p>Stay tuned for our upcoming newsletters filled with inspiring stories and actionable ways to make a difference for our oceans!</p>
      <p style="margin-top: 30px;"><strong>Best regards,</strong><br>The Marine Refuge Team</p>
    </div>
    <div class="footer">
      <p>If you wish to unsubscribe, please reply to this email with "unsubscribe" in the subject line.</p>
      <p>&copy; {{.Year}} Marine Refuge. All rights reserved.</p>
    </div>
  </div>
</body>
</html>`

const adminHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #0a4d3c 0%, #0d6a54 100%); padding: 30px; text-align: center; color: white;">
    <h2 style="margin: 0; font-size: 24px;">🌊 New Contact Form Submission</h2>
  </div>
  <div style="background: white; padding: 30px; border: 1px solid #e0e0e0;">
    <div style="background: #f5f5f5; padding: 15px; margin-bottom: 20px; border-left: 4px solid #07EBE1;">
      <p style="margin: 5px 0;"><strong>Name:</strong> {{.FirstName}} {{.LastName}}</p>
      <p style="margin: 5px 0;"><strong>Email:</strong> <a href="mailto:{{.Email}}" style="color: #0a4d3c; text-decoration: none;">{{.Email}}</a></p>
      <p style="margin: 5px 0;"><strong>Phone:</strong> {{.Phone}}</p>
      <p style="margin: 5px 0;"><strong>Submitted:</strong> {{.Submitted}}</p>
    </div>
    <div style="margin-bottom: 20px;">
      <h3 style="color: #0a4d3c; margin-top: 0;">Message:</h3>
      <p style="white-space: pre-wrap; color: #333; line-height: 1.6;">{{.Message}}</p>
    </div>
    <div style="background: #f0faf9; padding: 15px; border-radius: 4px; margin-top: 20px;">
      <p style="margin: 0; font-size: 12px; color: #666;">
        <strong>Additional Info:</strong><br>
        IP: {{if .IPAddress}}{{.IPAddress}}{{else}}N/A{{end}}<br>
        Source: {{.Source}}
      </p>
    </div>
  </div>
</div>`

const confirmationHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #0a4d3c 0%, #0d6a54 100%); padding: 40px; text-align: center; border-radius: 8px 8px 0 0;">
    <h1 style="color: white; margin: 0; font-size: 28px;">🌊 Marine Refuge</h1>
    <p style="color: rgba(255,255,255,0.9); margin-top: 8px; font-size: 16px;">We've received your message</p>
  </div>
  <div style="background: white; padding: 40px; border-radius: 0 0 8px 8px; border: 1px solid #e0e0e0;">
    <p style="color: #333; font-size: 16px;">Hi <strong>{{.FirstName}}</strong>,</p>
    <p style="color: #666; line-height: 1.6; margin: 20px 0;">
      Thank you for reaching out to Marine Refuge. We've received your message and truly appreciate you contacting us.
    </p>
    <div style="background: #f5f5f5; padding: 20px; border-left: 4px solid #07EBE1; margin: 20px 0;">
      <p style="color: #333; margin: 0 0 10px 0;"><strong>Your Message Summary:</strong></p>
      <p style="color: #666; margin: 0; font-size: 14px;"><strong>Subject:</strong> Contact Form Inquiry</p>
      <p style="color: #666; margin: 5px 0 0 0; font-size: 14px;"><strong>Submitted:</strong> {{.Submitted}}</p>
    </div>
    <p style="color: #666; line-height: 1.6; margin: 20px 0;">
      Our team will review your message and get back to you as soon as possible, typically within <strong>24-48 hours</strong>.
      If your inquiry is urgent, please feel free to call us.
    </p>
    <div style="background: #f0faf9; padding: 20px; border-radius: 4px; margin: 20px 0;">
      <p style="color: #333; margin: 0 0 10px 0;"><strong>📍 Contact Information:</strong></p>
      <p style="color: #666; margin: 5px 0;"><strong>📞 Phone:</strong> +92 444999332</p>
      <p style="color: #666; margin: 5px 0;"><strong>📧 Email:</strong> <a href="mailto:marinerefuge@gmail.com" style="color: #0a4d3c; text-decoration: none;">marinerefuge@gmail.com</a></p>
      <p style="color: #666; margin: 5px 0;"><strong>📍 Address:</strong> NSTP, H-12 Islamabad, Pakistan</p>
    </div>
    <p style="color: #666; line-height: 1.6; margin: 20px 0;">
      In the meantime, feel free to explore more about our mission at <a href="https://marinerefuge.com" style="color: #0a4d3c; text-decoration: none;">marinerefuge.com</a>
    </p>
    <p style="color: #666; line-height: 1.6;">
      Best regards,<br>
      <strong>The Marine Refuge Team</strong><br>
      <em style="color: #999;">Building Resilient Futures 🌊</em>
    </p>
  </div>
  <div style="text-align: center; padding: 20px; color: #999; font-size: 12px;">
    <p style="margin: 0;">This is an automated confirmation email. Please do not reply to this email.</p>
    <p style="margin: 5px 0 0 0;">&copy; {{.Year}} Marine Refuge. All rights reserved.</p>
  </div>
</div>`
