package validator_test

import (
	"errors"
	"testing"
	"time"

	"cphorme/internal/validator"

	"github.com/stretchr/testify/assert"
)

type intake struct {
	Name      string  `form:"name" validate:"trimmed_min=2"`
	Birthdate string  `form:"birthdate" validate:"required,past_date"`
	Email     string  `form:"email" validate:"omitempty,email"`
	BloodType string  `form:"blood_type" validate:"required,blood_type"`
	Diagnosis string  `form:"diagnosis" validate:"required,diagnosis"`
	Weight    float64 `form:"weight" validate:"gte=1,lte=500"`
}

func validIntake() intake {
	return intake{
		Name:      "Jo",
		Birthdate: "1990-07-22",
		BloodType: "AB-",
		Diagnosis: "Asthma",
		Weight:    70,
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestValidator_Rules(t *testing.T) {
	v := validator.New().WithClock(fixedNow)

	tests := []struct {
		name    string
		mutate  func(*intake)
		field   string
		isValid bool
	}{
		{name: "valid", mutate: func(*intake) {}, isValid: true},
		{name: "name_padded_with_spaces", mutate: func(i *intake) { i.Name = "  J  " }, field: "name"},
		{name: "birthdate_today", mutate: func(i *intake) { i.Birthdate = "2024-06-01" }, isValid: true},
		{name: "birthdate_tomorrow", mutate: func(i *intake) { i.Birthdate = "2024-06-02" }, field: "birthdate"},
		{name: "birthdate_garbage", mutate: func(i *intake) { i.Birthdate = "22/07/1990" }, field: "birthdate"},
		{name: "email_empty_is_fine", mutate: func(i *intake) { i.Email = "" }, isValid: true},
		{name: "email_invalid", mutate: func(i *intake) { i.Email = "mary@" }, field: "email"},
		{name: "blood_type_unknown", mutate: func(i *intake) { i.BloodType = "C+" }, field: "blood_type"},
		{name: "diagnosis_not_listed", mutate: func(i *intake) { i.Diagnosis = "Dragon Pox" }, field: "diagnosis"},
		{name: "weight_at_min", mutate: func(i *intake) { i.Weight = 1 }, isValid: true},
		{name: "weight_at_max", mutate: func(i *intake) { i.Weight = 500 }, isValid: true},
		{name: "weight_over_max", mutate: func(i *intake) { i.Weight = 500.1 }, field: "weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validIntake()
			tt.mutate(&in)

			err := v.Validate(in)
			if tt.isValid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			messages := validator.Errors(err)
			assert.Contains(t, messages, tt.field)
			assert.Len(t, messages, 1)
		})
	}
}

func TestValidator_PastDateAcrossZones(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		birthdate string
		isValid   bool
	}{
		// 2025-06-02 04:30 UTC
		{name: "behind_utc_today", now: time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)), birthdate: "2025-06-02", isValid: true},
		{name: "behind_utc_tomorrow", now: time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)), birthdate: "2025-06-03"},
		// 2025-06-01 21:30 UTC
		{name: "ahead_of_utc_local_today", now: time.Date(2025, 6, 2, 0, 30, 0, 0, time.FixedZone("UTC+3", 3*3600)), birthdate: "2025-06-02"},
		{name: "ahead_of_utc_utc_today", now: time.Date(2025, 6, 2, 0, 30, 0, 0, time.FixedZone("UTC+3", 3*3600)), birthdate: "2025-06-01", isValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New().WithClock(func() time.Time { return tt.now })

			in := validIntake()
			in.Birthdate = tt.birthdate
			err := v.Validate(in)
			if tt.isValid {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, validator.Errors(err), "birthdate")
		})
	}
}

func TestErrors_Messages(t *testing.T) {
	v := validator.New().WithClock(fixedNow)

	in := validIntake()
	in.Name = "J"
	in.Weight = 0
	in.BloodType = ""

	messages := validator.Errors(v.Validate(in))
	assert.Equal(t, "Must be at least 2 characters", messages["name"])
	assert.Equal(t, "Must be at least 1", messages["weight"])
	assert.Equal(t, "This field is required", messages["blood_type"])
}

func TestErrors_NonValidation(t *testing.T) {
	assert.Nil(t, validator.Errors(nil))
	assert.Equal(t, map[string]string{"": "boom"}, validator.Errors(errors.New("boom")))
}
