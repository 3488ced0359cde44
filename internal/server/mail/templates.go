package mail

import (
	"embed"
	"html/template"
)

// Template names understood by the dispatcher.
const (
	TemplateVerifyEmail   = "verify-email"
	TemplateResetPassword = "reset-password"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var subjects = map[string]string{
	TemplateVerifyEmail:   "Verify email",
	TemplateResetPassword: "Reset password",
}
