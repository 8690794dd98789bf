package application

import (
	"bytes"
	"html/template"

	"github.com/wyfcoding/storefront/internal/notification/domain"
)

var emailLayout = template.Must(template.New("email").Parse(
	`<div style="font-family:sans-serif">` +
		`<h2>{{.Title}}</h2>` +
		`{{if .Name}}<p>Hello {{.Name}},</p>{{end}}` +
		`<p>{{.Message}}</p>` +
		`<p style="color:#888">Storefront</p>` +
		`</div>`))

type emailView struct {
	Title   string
	Name    string
	Message string
}

func subjectFor(t domain.Type) string {
	switch t {
	case domain.TypeOrderUpdate:
		return "Order Update"
	case domain.TypeAdmin:
		return "Admin Notification"
	default:
		return "Notification"
	}
}

// renderEmail 消息内容经过 HTML 转义
func renderEmail(title, name, message string) string {
	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, emailView{Title: title, Name: name, Message: message}); err != nil {
		return template.HTMLEscapeString(message)
	}
	return buf.String()
}
