package views

import (
	"fmt"
	"strings"
	"time"

	"cphorme/internal/auth"
	"cphorme/internal/form"
	"cphorme/internal/i18n"
	"cphorme/internal/insights"
	"cphorme/internal/loader"
	"cphorme/internal/medical"
	"cphorme/internal/session"
)

// List presentations.
const (
	ViewCards = "cards"
	ViewTable = "table"
)

// LayoutProps is shared by every page.
type LayoutProps struct {
	Title      string
	Lang       i18n.Language
	Languages  []i18n.Language
	Translator *i18n.Translator
	CSRFToken  string
	Account    auth.Account
	SignedIn   bool
	Flash      *session.Flash
	Path       string
}

func (p LayoutProps) T(key string) string {
	if p.Translator == nil {
		return key
	}
	return p.Translator.T(p.Lang, key)
}

func (p LayoutProps) Tf(key string, args ...any) string {
	return fmt.Sprintf(p.T(key), args...)
}

// Active reports whether the current path is below prefix.
func (p LayoutProps) Active(prefix string) bool {
	return p.Path == prefix || strings.HasPrefix(p.Path, prefix+"/")
}

type LandingProps struct {
	Layout LayoutProps
}

type InsightsProps struct {
	Layout   LayoutProps
	Summary  insights.Summary
	States   []insights.State
	Trend    []insights.YearCount
	Disease  insights.Disease
	Diseases []insights.Disease
}

type LoginChooserProps struct {
	Layout LayoutProps
}

type LoginProps struct {
	Layout  LayoutProps
	Heading string
	Action  string
	Email   string
	Errors  form.FieldErrors
}

type SignupProps struct {
	Layout LayoutProps
	Form   form.SignupForm
	Errors form.FieldErrors
}

type DashboardProps struct {
	Layout         LayoutProps
	Patients       loader.Result[[]medical.Patient]
	Reports        loader.Result[[]medical.Report]
	PatientSummary medical.PatientSummary
	ReportSummary  medical.ReportSummary
	Recent         []medical.Report
}

type PatientListProps struct {
	Layout   LayoutProps
	Result   loader.Result[[]medical.Patient]
	Patients []medical.Patient
	Summary  medical.PatientSummary
	Query    string
	View     string
	Now      time.Time
}

type PatientDetailProps struct {
	Layout LayoutProps
	Result loader.Result[medical.Patient]
	Now    time.Time
}

type PatientFormProps struct {
	Layout     LayoutProps
	Form       form.PatientForm
	Errors     form.FieldErrors
	Genders    []string
	BloodTypes []string
	Action     string
}

type ReportListProps struct {
	Layout  LayoutProps
	Result  loader.Result[[]medical.Report]
	Reports []medical.Report
	Summary medical.ReportSummary
	Query   string
	View    string
}

type ReportDetailProps struct {
	Layout    LayoutProps
	Result    loader.Result[medical.Report]
	Vitals    medical.Vitals
	HasVitals bool
}

type ReportFormProps struct {
	Layout   LayoutProps
	Form     form.ReportForm
	Errors   form.FieldErrors
	Patients loader.Result[[]medical.Patient]
	Diseases []string
	Action   string
}

type NotFoundProps struct {
	Layout LayoutProps
}

type ErrorProps struct {
	Layout  LayoutProps
	Code    int
	Message string
}
