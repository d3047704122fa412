// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// DueSoonEmailData holds data for due-soon reminder email templates.
type DueSoonEmailData struct {
	SiteName  string
	UserName  string
	TaskTitle string
	DueAt     time.Time
	TaskLink  string
}

// BuildDueSoonEmail creates a reminder email with both HTML and text bodies.
func BuildDueSoonEmail(data DueSoonEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("Reminder: %q is due soon", data.TaskTitle),
		TextBody: buildDueSoonText(data),
		HTMLBody: buildDueSoonHTML(data),
	}
}

func buildDueSoonText(data DueSoonEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.UserName))
	buf.WriteString(fmt.Sprintf("Your task %q is due at %s.\n\n", data.TaskTitle, data.DueAt.Format(time.RFC1123)))
	if data.TaskLink != "" {
		buf.WriteString("Open the task:\n")
		buf.WriteString(data.TaskLink + "\n\n")
	}
	buf.WriteString("You can change reminder settings in your notification preferences.\n")
	return buf.String()
}

func buildDueSoonHTML(data DueSoonEmailData) string {
	tmpl := template.Must(template.New("duesoon").Parse(dueSoonHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, struct {
		DueSoonEmailData
		DueAtText string
	}{data, data.DueAt.Format("Mon, Jan 2 at 3:04 PM MST")})
	return buf.String()
}

const dueSoonHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Task Reminder</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.UserName}}, a task of yours is coming due:
              </p>

              <!-- Task Box -->
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 20px; font-weight: 700; color: #1f2937;">{{.TaskTitle}}</span>
                <p style="margin: 8px 0 0; font-size: 14px; color: #6b7280;">Due {{.DueAtText}}</p>
              </div>

              {{if .TaskLink}}
              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.TaskLink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Open Task
                    </a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You can change reminder settings in your notification preferences.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
