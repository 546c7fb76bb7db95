// Package views renders the portal pages. Pages are html/template files
// compiled into the binary and exposed as templ components, so handlers
// render them like any other component.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"cphorme/internal/backend"
	"cphorme/internal/form"
	"cphorme/internal/medical"

	"github.com/a-h/templ"
)

//go:embed templates
var files embed.FS

var funcs = template.FuncMap{
	"date":      formatDate,
	"datetime":  formatDateTime,
	"fallback":  func(s string) string { return medical.Fallback(s, medical.NotAvailable) },
	"number":    form.Number,
	"decimal":   func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	"thousands": thousands,
	"join":      strings.Join,
	"action":    func(name string, index int) string { return name + ":" + strconv.Itoa(index) },
	"panel":     panel,
	"errorText": backend.UserMessage,
}

var pages = mustParse()

func mustParse() map[string]*template.Template {
	names, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		panic(err)
	}

	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/partials.html",
			name,
		))
		parsed[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return parsed
}

func page(name string, data any) templ.Component {
	t, ok := pages[name]
	if !ok {
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return fmt.Errorf("views: unknown page %q", name)
		})
	}
	return templ.FromGoHTML(t, data)
}

func Landing(p LandingProps) templ.Component { return page("landing", p) }

func Insights(p InsightsProps) templ.Component { return page("insights", p) }

func LoginChooser(p LoginChooserProps) templ.Component { return page("login_chooser", p) }

func Login(p LoginProps) templ.Component { return page("login", p) }

func Signup(p SignupProps) templ.Component { return page("signup", p) }

func Dashboard(p DashboardProps) templ.Component { return page("dashboard", p) }

func PatientList(p PatientListProps) templ.Component { return page("patients", p) }

func PatientDetail(p PatientDetailProps) templ.Component { return page("patient", p) }

func PatientForm(p PatientFormProps) templ.Component { return page("patient_form", p) }

func ReportList(p ReportListProps) templ.Component { return page("reports", p) }

func ReportDetail(p ReportDetailProps) templ.Component { return page("report", p) }

func ReportForm(p ReportFormProps) templ.Component { return page("report_form", p) }

func NotFound(p NotFoundProps) templ.Component { return page("not_found", p) }

func Error(p ErrorProps) templ.Component { return page("error", p) }

// panel collects the arguments of the not-found panel partial.
func panel(title, message, detail, back, backLabel string) map[string]string {
	return map[string]string{
		"Title":     title,
		"Message":   message,
		"Detail":    detail,
		"Back":      back,
		"BackLabel": backLabel,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return medical.NotAvailable
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return medical.NotAvailable
	}
	return t.Format("Jan 2, 2006 15:04")
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
