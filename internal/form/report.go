package form

import (
	"net/url"
	"strconv"
	"time"

	"cphorme/internal/medical"
	"cphorme/internal/validator"
)

// Vitals a new report starts with.
const (
	DefaultHeight      = 170
	DefaultWeight      = 70
	DefaultTemperature = 37.0
	DefaultSystolic    = 120
	DefaultDiastolic   = 80
)

type ReportForm struct {
	ID string `form:"-" validate:"-"`

	PatientID   string `form:"patient_id" validate:"required"`
	Subjective  string `form:"subjective" validate:"trimmed_min=10"`
	Assessment  string `form:"assessment" validate:"trimmed_min=10"`
	Plan        string `form:"plan" validate:"trimmed_min=10"`
	Medications string `form:"medications" validate:"trimmed_min=1"`
	Diagnosis   string `form:"diagnosis" validate:"required,diagnosis"`

	Height      float64 `form:"height" validate:"gte=30,lte=300"`
	Weight      float64 `form:"weight" validate:"gte=1,lte=500"`
	Temperature float64 `form:"temperature" validate:"gte=30,lte=45"`
	Systolic    float64 `form:"systolic" validate:"gte=70,lte=250"`
	Diastolic   float64 `form:"diastolic" validate:"gte=40,lte=150"`

	// numeric inputs that could not be parsed
	invalid FieldErrors
}

func NewReportForm() ReportForm {
	return ReportForm{
		Height:      DefaultHeight,
		Weight:      DefaultWeight,
		Temperature: DefaultTemperature,
		Systolic:    DefaultSystolic,
		Diastolic:   DefaultDiastolic,
	}
}

// ReportFormFrom pre-fills the form with an existing report. Missing vitals
// fall back to the defaults.
func ReportFormFrom(r medical.Report) ReportForm {
	f := NewReportForm()
	f.ID = r.ID
	f.PatientID = r.PatientID
	f.Subjective = r.Subjective
	f.Assessment = r.Assessment
	f.Plan = r.Plan
	f.Medications = r.Medications
	f.Diagnosis = r.Diagnosis

	if v, ok := r.LatestVitals(); ok {
		f.Height = orDefault(v.Height, DefaultHeight)
		f.Weight = orDefault(v.Weight, DefaultWeight)
		f.Temperature = orDefault(v.Temperature, DefaultTemperature)
		f.Systolic = orDefault(v.Systolic, DefaultSystolic)
		f.Diastolic = orDefault(v.Diastolic, DefaultDiastolic)
	}
	return f
}

func ParseReportForm(values url.Values) ReportForm {
	f := ReportForm{
		PatientID:   value(values, "patient_id"),
		Subjective:  value(values, "subjective"),
		Assessment:  value(values, "assessment"),
		Plan:        value(values, "plan"),
		Medications: value(values, "medications"),
		Diagnosis:   value(values, "diagnosis"),
		invalid:     FieldErrors{},
	}
	f.Height = f.number(values, "height")
	f.Weight = f.number(values, "weight")
	f.Temperature = f.number(values, "temperature")
	f.Systolic = f.number(values, "systolic")
	f.Diastolic = f.number(values, "diastolic")
	return f
}

func (f *ReportForm) number(values url.Values, key string) float64 {
	n, err := strconv.ParseFloat(value(values, key), 64)
	if err != nil {
		f.invalid[key] = "Enter a number"
		return 0
	}
	return n
}

func (f ReportForm) Editing() bool {
	return f.ID != ""
}

func (f ReportForm) Validate(v *validator.Validator) FieldErrors {
	errs := validate(v, f)
	for field, msg := range f.invalid {
		errs[field] = msg
	}
	return errs
}

// Payload builds the request body. The doctor comes from the signed-in
// session and the vitals are stamped with now.
func (f ReportForm) Payload(doctorID string, now time.Time) medical.ReportPayload {
	return medical.ReportPayload{
		PatientID:   f.PatientID,
		DoctorID:    doctorID,
		Subjective:  f.Subjective,
		Assessment:  f.Assessment,
		Plan:        f.Plan,
		Medications: f.Medications,
		Diagnosis:   f.Diagnosis,
		Vitals: medical.VitalsPayload{
			Height:      f.Height,
			Weight:      f.Weight,
			Temperature: f.Temperature,
			Systolic:    f.Systolic,
			Diastolic:   f.Diastolic,
			RecordedAt:  now.UTC().Format(time.RFC3339),
		},
	}
}

// Number formats a vitals value for an input field.
func Number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
