package mail

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	TemplateBookingRejected      = "booking_rejected.tmpl"
	TemplateBookingDatesProposed = "booking_dates_proposed.tmpl"
	TemplateBookingConfirmed     = "booking_confirmed.tmpl"
)

var subjects = map[string]string{
	TemplateBookingRejected:      "Your booking request was declined",
	TemplateBookingDatesProposed: "New dates proposed for your booking",
	TemplateBookingConfirmed:     "Your booking is confirmed",
}

var templates = template.Must(
	template.New("mail").
		Funcs(template.FuncMap{"day": formatDay}).
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl"),
)

func formatDay(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2 Jan 2006")
	case *time.Time:
		if t == nil {
			return "-"
		}
		return t.Format("2 Jan 2006")
	default:
		return fmt.Sprint(v)
	}
}

// Render executes a named template and returns subject and body.
func Render(name string, data any) (string, string, error) {
	subject, ok := subjects[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return subject, buf.String(), nil
}
