package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/paintops/go-notification-service/internal/routing"
)

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="margin:0;padding:0;background:#f3f4f6;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="max-width:600px;margin:24px auto;background:#ffffff;border-radius:8px;overflow:hidden;">
    <tr><td style="background:{{.Color}};padding:20px 24px;color:#ffffff;font-size:20px;font-weight:bold;">{{.Title}}</td></tr>
    <tr><td style="padding:24px;color:#111827;font-size:15px;line-height:1.5;">
      {{if .From}}<p style="margin:0 0 12px;color:#6b7280;">From: {{.From}}</p>{{end}}
      <p style="margin:0 0 24px;white-space:pre-line;">{{.Body}}</p>
      <a href="{{.URL}}" style="display:inline-block;padding:12px 20px;background:{{.Color}};color:#ffffff;text-decoration:none;border-radius:6px;">Open in app</a>
    </td></tr>
    <tr><td style="padding:16px 24px;background:#f9fafb;color:#9ca3af;font-size:12px;">
      You receive this email because notifications are enabled for your account. Manage your preferences in the app.
    </td></tr>
  </table>
</body>
</html>`

var layoutTmpl = template.Must(template.New("email").Parse(layout))

// Message is the content of one notification email.
type Message struct {
	Type        string
	Title       string
	Body        string
	Link        string
	TriggeredBy string
}

// Renderer builds the HTML body of notification emails.
type Renderer struct {
	baseURL string
}

func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}
}

type view struct {
	Title string
	Color template.CSS
	From  string
	Body  string
	URL   string
}

// Render returns the HTML document for msg.
func (r *Renderer) Render(msg Message) (string, error) {
	v := view{
		Title: msg.Title,
		Color: template.CSS(routing.AccentColor(msg.Type)),
		From:  msg.TriggeredBy,
		Body:  msg.Body,
		URL:   routing.AbsoluteLink(r.baseURL, msg.Link),
	}
	var buf bytes.Buffer
	if err := layoutTmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}
