package medical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformed = errors.New("malformed payload")
	ErrNoRecord  = errors.New("no record in payload")
)

// PartialError reports list elements that could not be decoded. The decoders
// return it together with the records that could.
type PartialError struct {
	Skipped int
	Total   int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d of %d records could not be decoded", e.Skipped, e.Total)
}

// The API is not consistent about field names and shapes across its
// revisions. Everything it sends goes through the decoders below so the rest
// of the portal only ever sees the canonical Patient, Report and Doctor.

type rawPatient struct {
	ID                 flexString      `json:"id"`
	Name               flexString      `json:"name"`
	FullName           flexString      `json:"full_name"`
	DateOfBirth        flexString      `json:"date_of_birth"`
	Birthdate          flexString      `json:"birthdate"`
	Gender             flexString      `json:"gender"`
	Occupation         flexString      `json:"occupation"`
	Address            flexString      `json:"address"`
	Phone              flexString      `json:"phone"`
	ContactInformation flexString      `json:"contact_information"`
	Email              flexString      `json:"email"`
	OriginState        flexString      `json:"origin_state"`
	Location           flexString      `json:"location"`
	EmergencyContact   flexString      `json:"emergency_contact"`
	BloodType          flexString      `json:"blood_type"`
	BloodTypeAlt       flexString      `json:"bloodType"`
	Allergies          json.RawMessage `json:"allergies"`
	Operations         json.RawMessage `json:"operations"`
	PreviousOperations json.RawMessage `json:"previousOperations"`
	CreatedAt          flexString      `json:"created_at"`
	CreatedAtAlt       flexString      `json:"createdAt"`
	UpdatedAt          flexString      `json:"updated_at"`
	UpdatedAtAlt       flexString      `json:"updatedAt"`
}

func (r rawPatient) canonical() Patient {
	operations := r.Operations
	if len(bytes.TrimSpace(operations)) == 0 {
		operations = r.PreviousOperations
	}

	return Patient{
		ID:               string(r.ID),
		Name:             firstNonEmpty(r.Name, r.FullName),
		BirthDate:        parseTime(firstNonEmpty(r.DateOfBirth, r.Birthdate)),
		Gender:           Gender(strings.ToLower(strings.TrimSpace(string(r.Gender)))),
		Occupation:       string(r.Occupation),
		Address:          string(r.Address),
		Phone:            firstNonEmpty(r.Phone, r.ContactInformation),
		Email:            string(r.Email),
		OriginState:      firstNonEmpty(r.OriginState, r.Location),
		EmergencyContact: string(r.EmergencyContact),
		BloodType:        firstNonEmpty(r.BloodType, r.BloodTypeAlt),
		Allergies:        labels(r.Allergies, "allergen", "name", "substance", "description"),
		Operations:       labels(operations, "operation", "procedure", "name", "description"),
		CreatedAt:        parseTime(firstNonEmpty(r.CreatedAt, r.CreatedAtAlt)),
		UpdatedAt:        parseTime(firstNonEmpty(r.UpdatedAt, r.UpdatedAtAlt)),
	}
}

type rawVitals struct {
	Height       flexFloat  `json:"height"`
	Weight       flexFloat  `json:"weight"`
	Temperature  flexFloat  `json:"temperature"`
	Systolic     flexFloat  `json:"bloodPressureSystolic"`
	SystolicAlt  flexFloat  `json:"bp_systolic"`
	Diastolic    flexFloat  `json:"bloodPressureDiastolic"`
	DiastolicAlt flexFloat  `json:"bp_diastolic"`
	RecordedAt   flexString `json:"recordedAt"`
	RecordedAlt  flexString `json:"recorded_at"`
}

func (r rawVitals) canonical() Vitals {
	return Vitals{
		Height:      float64(r.Height),
		Weight:      float64(r.Weight),
		Temperature: float64(r.Temperature),
		Systolic:    firstNonZero(float64(r.Systolic), float64(r.SystolicAlt)),
		Diastolic:   firstNonZero(float64(r.Diastolic), float64(r.DiastolicAlt)),
		RecordedAt:  parseTime(firstNonEmpty(r.RecordedAt, r.RecordedAlt)),
	}
}

type rawReport struct {
	ID            flexString      `json:"id"`
	PatientID     flexString      `json:"patient_id"`
	PatientIDAlt  flexString      `json:"patientId"`
	DoctorID      flexString      `json:"doctor_id"`
	Subjective    flexString      `json:"subjective"`
	Assessment    flexString      `json:"assessment"`
	Plan          flexString      `json:"plan"`
	TreatmentPlan flexString      `json:"treatmentPlan"`
	Medications   flexText        `json:"medications"`
	Medication    flexText        `json:"medication"`
	Diagnosis     flexString      `json:"diagnosis"`
	Vitals        json.RawMessage `json:"vitals"`
	CreatedAt     flexString      `json:"created_at"`
	CreatedAtAlt  flexString      `json:"createdAt"`
	UpdatedAt     flexString      `json:"updated_at"`
	PatientName   flexString      `json:"patient_name"`
	DoctorName    flexString      `json:"doctor_name"`
	DoctorNameAlt flexString      `json:"doctorName"`
}

func (r rawReport) canonical() Report {
	return Report{
		ID:          string(r.ID),
		PatientID:   firstNonEmpty(r.PatientID, r.PatientIDAlt),
		DoctorID:    string(r.DoctorID),
		Subjective:  string(r.Subjective),
		Assessment:  string(r.Assessment),
		Plan:        firstNonEmpty(r.Plan, r.TreatmentPlan),
		Medications: firstNonEmpty(flexString(r.Medications), flexString(r.Medication)),
		Diagnosis:   string(r.Diagnosis),
		Vitals:      decodeVitals(r.Vitals),
		CreatedAt:   parseTime(firstNonEmpty(r.CreatedAt, r.CreatedAtAlt)),
		UpdatedAt:   parseTime(string(r.UpdatedAt)),
		PatientName: string(r.PatientName),
		DoctorName:  firstNonEmpty(r.DoctorName, r.DoctorNameAlt),
	}
}

type rawDoctor struct {
	ID       flexString `json:"id"`
	Name     flexString `json:"name"`
	FullName flexString `json:"full_name"`
	Username flexString `json:"username"`
}

// DecodePatient accepts a patient object or a one-element array of them.
func DecodePatient(data []byte) (Patient, error) {
	var raw rawPatient
	if err := decodeOne(data, &raw); err != nil {
		return Patient{}, err
	}
	return raw.canonical(), nil
}

// DecodePatients requires a JSON array. Elements that are not objects are
// skipped; the patients that did decode come back with a *PartialError.
func DecodePatients(data []byte) ([]Patient, error) {
	var raws []rawPatient
	err := decodeMany(data, &raws)
	if err != nil && !isPartial(err) {
		return nil, err
	}
	patients := make([]Patient, 0, len(raws))
	for _, raw := range raws {
		patients = append(patients, raw.canonical())
	}
	return patients, err
}

func DecodeReport(data []byte) (Report, error) {
	var raw rawReport
	if err := decodeOne(data, &raw); err != nil {
		return Report{}, err
	}
	return raw.canonical(), nil
}

func DecodeReports(data []byte) ([]Report, error) {
	var raws []rawReport
	err := decodeMany(data, &raws)
	if err != nil && !isPartial(err) {
		return nil, err
	}
	reports := make([]Report, 0, len(raws))
	for _, raw := range raws {
		reports = append(reports, raw.canonical())
	}
	return reports, err
}

func isPartial(err error) bool {
	var partial *PartialError
	return errors.As(err, &partial)
}

func DecodeDoctor(data []byte) (Doctor, error) {
	var raw rawDoctor
	if err := decodeOne(data, &raw); err != nil {
		return Doctor{}, err
	}
	return Doctor{
		ID:   string(raw.ID),
		Name: firstNonEmpty(raw.Name, raw.FullName, raw.Username),
	}, nil
}

func decodeOne(data []byte, v any) error {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}

	switch data[0] {
	case '{':
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if len(items) == 0 {
			return ErrNoRecord
		}
		return decodeOne(items[0], v)
	case 'n':
		return ErrNoRecord
	default:
		return fmt.Errorf("%w: expected an object", ErrMalformed)
	}
}

// decodeMany decodes every object in a JSON array. Elements that are not
// objects are dropped and reported through a *PartialError next to the
// records that did decode.
func decodeMany[T any](data []byte, out *[]T) error {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	if data[0] != '[' {
		return fmt.Errorf("%w: expected an array", ErrMalformed)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	result := make([]T, 0, len(items))
	skipped := 0
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			skipped++
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			skipped++
			continue
		}
		result = append(result, v)
	}
	*out = result
	if skipped > 0 {
		return &PartialError{Skipped: skipped, Total: len(items)}
	}
	return nil
}

func decodeVitals(data json.RawMessage) []Vitals {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '{':
		var raw rawVitals
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		return []Vitals{raw.canonical()}
	case '[':
		var raws []rawVitals
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil
		}
		vitals := make([]Vitals, 0, len(raws))
		for _, raw := range raws {
			vitals = append(vitals, raw.canonical())
		}
		return vitals
	default:
		return nil
	}
}

// labels turns a list of strings or tagged objects into plain strings. The
// first non-empty value among keys is used for objects. A bare string is
// treated as a comma separated list.
func labels(data json.RawMessage, keys ...string) []string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []string{}
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		result := []string{}
		for _, part := range strings.Split(single, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
		return result
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return []string{}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				result = append(result, s)
			}
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		for _, key := range keys {
			if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
				result = append(result, strings.TrimSpace(v))
				break
			}
		}
	}
	return result
}

// flexString accepts JSON strings, numbers and booleans. Arrays, objects and
// null read as empty; it never fails.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = ""
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = flexString(s)
		}
	case 't', 'f':
		*f = flexString(data)
	case '[', '{', 'n':
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = flexString(n.String())
		}
	}
	return nil
}

// flexText is free text the API sends either as one string or as a list of
// strings, which are joined with ", ".
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		var s flexString
		err := s.UnmarshalJSON(data)
		*f = flexText(s)
		return err
	}

	var items []flexString
	if err := json.Unmarshal(data, &items); err != nil {
		*f = ""
		return nil
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(string(item)); v != "" {
			parts = append(parts, v)
		}
	}
	*f = flexText(strings.Join(parts, ", "))
	return nil
}

// flexFloat accepts JSON numbers and numeric strings. Anything else is zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexFloat(n)
			return nil
		}
	}
	*f = 0
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if strings.TrimSpace(string(v)) != "" {
			return string(v)
		}
	}
	return ""
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
