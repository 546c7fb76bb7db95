package medical

import (
	"fmt"
	"slices"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(s), nil
	default:
		return "", fmt.Errorf("unsupported gender: %q", s)
	}
}

var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func IsBloodType(s string) bool {
	return slices.Contains(BloodTypes, s)
}

// DateLayout is the wire format of birth dates.
const DateLayout = "2006-01-02"

// Patient is the canonical shape used by every view after decoding.
type Patient struct {
	ID               string
	Name             string
	BirthDate        time.Time
	Gender           Gender
	Occupation       string
	Address          string
	Phone            string
	Email            string
	OriginState      string
	EmergencyContact string
	BloodType        string
	Allergies        []string
	Operations       []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Age in whole years at the given moment. Zero when the birth date is unknown.
func (p Patient) Age(now time.Time) int {
	if p.BirthDate.IsZero() {
		return 0
	}
	age := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() || (now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// PatientPayload is the request body of the create and update endpoints.
type PatientPayload struct {
	Name             string   `json:"name"`
	DateOfBirth      string   `json:"date_of_birth"`
	Gender           Gender   `json:"gender"`
	Occupation       string   `json:"occupation"`
	Address          string   `json:"address"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
	OriginState      string   `json:"origin_state"`
	EmergencyContact string   `json:"emergency_contact"`
	BloodType        string   `json:"blood_type"`
	Allergies        []string `json:"allergies"`
	Operations       []string `json:"operations"`
}

type Doctor struct {
	ID   string
	Name string
}
