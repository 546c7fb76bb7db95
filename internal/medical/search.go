package medical

import (
	"slices"
	"strings"
	"time"
)

const (
	UnknownPatient = "Unknown Patient"
	UnknownDoctor  = "Unknown Doctor"
	NotAvailable   = "N/A"
)

// Fallback returns s, or def when s is blank.
func Fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// FilterPatients keeps the patients whose name, email or phone contains term,
// ignoring case. An empty term keeps everything.
func FilterPatients(patients []Patient, term string) []Patient {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return patients
	}

	result := make([]Patient, 0, len(patients))
	for _, p := range patients {
		if containsFold(p.Name, term) || containsFold(p.Email, term) || containsFold(p.Phone, term) {
			result = append(result, p)
		}
	}
	return result
}

// FilterReports matches against the resolved patient and doctor names and
// the diagnosis.
func FilterReports(reports []Report, term string) []Report {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return reports
	}

	result := make([]Report, 0, len(reports))
	for _, r := range reports {
		if containsFold(r.PatientName, term) || containsFold(r.DoctorName, term) || containsFold(r.Diagnosis, term) {
			result = append(result, r)
		}
	}
	return result
}

func containsFold(s, lowerTerm string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerTerm)
}

type PatientSummary struct {
	Total          int
	WithAllergies  int
	WithOperations int
}

func SummarizePatients(patients []Patient) PatientSummary {
	summary := PatientSummary{Total: len(patients)}
	for _, p := range patients {
		if len(p.Allergies) > 0 {
			summary.WithAllergies++
		}
		if len(p.Operations) > 0 {
			summary.WithOperations++
		}
	}
	return summary
}

type ReportSummary struct {
	Total    int
	Today    int
	ThisWeek int
}

// SummarizeReports counts reports created on the calendar day of now and in
// the seven days up to now.
func SummarizeReports(reports []Report, now time.Time) ReportSummary {
	summary := ReportSummary{Total: len(reports)}
	y, m, d := now.Date()
	weekAgo := now.AddDate(0, 0, -7)

	for _, r := range reports {
		if r.CreatedAt.IsZero() {
			continue
		}
		created := r.CreatedAt.In(now.Location())
		if cy, cm, cd := created.Date(); cy == y && cm == m && cd == d {
			summary.Today++
		}
		if !created.Before(weekAgo) && !created.After(now) {
			summary.ThisWeek++
		}
	}
	return summary
}

// Recent returns up to n reports, newest first. The input is not modified.
func Recent(reports []Report, n int) []Report {
	sorted := slices.Clone(reports)
	slices.SortStableFunc(sorted, func(a, b Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
