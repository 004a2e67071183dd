package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type crisisAlertEmailData struct {
	baseEmailData
	AgencyName  string
	CrisisTitle string
	CrisisType  string
	Severity    string
	Description string
	DistanceKm  string
	ETAMinutes  int
	DetailURL   string
}

type escalationEmailData struct {
	baseEmailData
	AgencyName  string
	CrisisTitle string
	Severity    string
	Level       int
	DetailURL   string
}

type crisisClosedEmailData struct {
	baseEmailData
	AgencyName  string
	CrisisTitle string
}

func renderEmailTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
