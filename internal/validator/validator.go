package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"cphorme/internal/medical"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New() *Validator {
	v := &Validator{validate: validator.New(), now: time.Now}

	// Report errors under the submitted form field name
	v.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	// Custom validators
	v.validate.RegisterValidation("blood_type", validateBloodType)
	v.validate.RegisterValidation("diagnosis", validateDiagnosis)
	v.validate.RegisterValidation("trimmed_min", validateTrimmedMin)
	v.validate.RegisterValidation("past_date", v.validatePastDate)

	return v
}

// WithClock replaces the clock used by past_date. Tests only.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func validateBloodType(fl validator.FieldLevel) bool {
	return medical.IsBloodType(fl.Field().String())
}

func validateDiagnosis(fl validator.FieldLevel) bool {
	return medical.IsCommonDisease(fl.Field().String())
}

// trimmed_min=N: at least N characters once surrounding whitespace is removed
func validateTrimmedMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
}

// past_date: a YYYY-MM-DD string or time.Time that is not after today
func (v *Validator) validatePastDate(fl validator.FieldLevel) bool {
	var date time.Time
	switch value := fl.Field().Interface().(type) {
	case time.Time:
		date = value
	case string:
		parsed, err := time.Parse(medical.DateLayout, strings.TrimSpace(value))
		if err != nil {
			return false
		}
		date = parsed
	default:
		return false
	}
	if date.IsZero() {
		return false
	}

	// dates carry no zone and parse as UTC, so today is the UTC day too
	y, m, d := v.now().UTC().Date()
	endOfToday := time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
	return !date.After(endOfToday)
}

// Errors turns a validation failure into one message per field, keyed by the
// form field name. Errors that did not come from validation end up under "".
func Errors(err error) map[string]string {
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return map[string]string{"": err.Error()}
	}

	messages := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := messages[e.Field()]; seen {
			continue
		}
		messages[e.Field()] = message(e)
	}
	return messages
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min", "trimmed_min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s", e.Param())
	case "email":
		return "Enter a valid email address"
	case "oneof":
		return "Choose one of: " + strings.Join(strings.Fields(e.Param()), ", ")
	case "blood_type":
		return "Select a valid blood type"
	case "diagnosis":
		return "Select a diagnosis from the list"
	case "past_date":
		return "Enter a valid date that is not in the future"
	case "uuid", "uuid4":
		return "Must be a valid identifier"
	default:
		return "Invalid value"
	}
}
