package medical

import (
	"slices"
	"time"
)

var CommonDiseases = []string{
	"Hypertension",
	"Diabetes Mellitus Type 2",
	"Diabetes Mellitus Type 1",
	"Asthma",
	"Chronic Obstructive Pulmonary Disease (COPD)",
	"Coronary Artery Disease",
	"Atrial Fibrillation",
	"Heart Failure",
	"Pneumonia",
	"Bronchitis",
	"Upper Respiratory Infection",
	"Urinary Tract Infection",
	"Gastroesophageal Reflux Disease (GERD)",
	"Irritable Bowel Syndrome",
	"Migraine",
	"Depression",
	"Anxiety Disorder",
	"Osteoarthritis",
	"Rheumatoid Arthritis",
	"Hypothyroidism",
	"Hyperthyroidism",
	"Anemia",
	"Chronic Kidney Disease",
	"Obesity",
	"Hyperlipidemia",
	"Osteoporosis",
	"Fibromyalgia",
	"Sleep Apnea",
}

func IsCommonDisease(s string) bool {
	return slices.Contains(CommonDiseases, s)
}

// Vitals measured at one point in time. Height in cm, weight in kg,
// temperature in degrees Celsius, blood pressure in mmHg.
type Vitals struct {
	Height      float64
	Weight      float64
	Temperature float64
	Systolic    float64
	Diastolic   float64
	RecordedAt  time.Time
}

// Report is a SOAP medical report. Vitals is always a list after decoding,
// whatever shape the API used.
type Report struct {
	ID          string
	PatientID   string
	DoctorID    string
	Subjective  string
	Assessment  string
	Plan        string
	Medications string
	Diagnosis   string
	Vitals      []Vitals
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Resolved display names. Empty until enriched.
	PatientName string
	DoctorName  string
}

// LatestVitals returns the most recently recorded vitals.
func (r Report) LatestVitals() (Vitals, bool) {
	if len(r.Vitals) == 0 {
		return Vitals{}, false
	}
	latest := r.Vitals[0]
	for _, v := range r.Vitals[1:] {
		if v.RecordedAt.After(latest.RecordedAt) {
			latest = v
		}
	}
	return latest, true
}

// Number is the short report number shown in breadcrumbs and cards.
func (r Report) Number() string {
	if r.ID == "" {
		return "Unknown"
	}
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

type VitalsPayload struct {
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	Temperature float64 `json:"temperature"`
	Systolic    float64 `json:"bloodPressureSystolic"`
	Diastolic   float64 `json:"bloodPressureDiastolic"`
	RecordedAt  string  `json:"recordedAt"`
}

// ReportPayload is the request body of the report create and update endpoints.
type ReportPayload struct {
	PatientID   string        `json:"patient_id"`
	DoctorID    string        `json:"doctor_id"`
	Subjective  string        `json:"subjective"`
	Assessment  string        `json:"assessment"`
	Plan        string        `json:"plan"`
	Medications string        `json:"medications"`
	Diagnosis   string        `json:"diagnosis"`
	Vitals      VitalsPayload `json:"vitals"`
}
