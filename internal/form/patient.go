package form

import (
	"net/url"

	"cphorme/internal/medical"
	"cphorme/internal/validator"
)

const (
	ActionAddAllergy      = "add-allergy"
	ActionRemoveAllergy   = "remove-allergy"
	ActionAddOperation    = "add-operation"
	ActionRemoveOperation = "remove-operation"
)

// PatientForm backs both the add and the edit patient pages. Allergies and
// Operations are edited in place and are not validated.
type PatientForm struct {
	ID string `form:"-" validate:"-"`

	Name             string `form:"name" validate:"trimmed_min=2"`
	Birthdate        string `form:"birthdate" validate:"required,past_date"`
	Gender           string `form:"gender" validate:"required,oneof=male female other"`
	Occupation       string `form:"occupation" validate:"trimmed_min=1"`
	Address          string `form:"address" validate:"trimmed_min=10"`
	Phone            string `form:"phone" validate:"trimmed_min=10"`
	OriginState      string `form:"origin_state" validate:"trimmed_min=3"`
	EmergencyContact string `form:"emergency_contact" validate:"trimmed_min=8"`
	Email            string `form:"email" validate:"omitempty,email"`
	BloodType        string `form:"blood_type" validate:"required,blood_type"`

	Allergies    ListField `form:"-" validate:"-"`
	Operations   ListField `form:"-" validate:"-"`
	NewAllergy   string    `form:"new_allergy" validate:"-"`
	NewOperation string    `form:"new_operation" validate:"-"`
}

func NewPatientForm() PatientForm {
	return PatientForm{
		Allergies:  NewListField(),
		Operations: NewListField(),
	}
}

// PatientFormFrom pre-fills the form with an existing patient for editing.
func PatientFormFrom(p medical.Patient) PatientForm {
	f := PatientForm{
		ID:               p.ID,
		Name:             p.Name,
		Gender:           string(p.Gender),
		Occupation:       p.Occupation,
		Address:          p.Address,
		Phone:            p.Phone,
		OriginState:      p.OriginState,
		EmergencyContact: p.EmergencyContact,
		Email:            p.Email,
		BloodType:        p.BloodType,
		Allergies:        NewListField(p.Allergies...),
		Operations:       NewListField(p.Operations...),
	}
	if !p.BirthDate.IsZero() {
		f.Birthdate = p.BirthDate.Format(medical.DateLayout)
	}
	return f
}

// ParsePatientForm reads a submitted patient form. The lists travel as
// repeated "allergies" and "operations" values.
func ParsePatientForm(values url.Values) PatientForm {
	return PatientForm{
		Name:             value(values, "name"),
		Birthdate:        value(values, "birthdate"),
		Gender:           value(values, "gender"),
		Occupation:       value(values, "occupation"),
		Address:          value(values, "address"),
		Phone:            value(values, "phone"),
		OriginState:      value(values, "origin_state"),
		EmergencyContact: value(values, "emergency_contact"),
		Email:            value(values, "email"),
		BloodType:        value(values, "blood_type"),
		Allergies:        NewListField(values["allergies"]...),
		Operations:       NewListField(values["operations"]...),
		NewAllergy:       value(values, "new_allergy"),
		NewOperation:     value(values, "new_operation"),
	}
}

// Apply performs a list action. It reports false for anything that is not a
// list action, including ActionSave.
func (f *PatientForm) Apply(raw string) bool {
	a := parseAction(raw)
	switch a.name {
	case ActionAddAllergy:
		if f.Allergies.Add(f.NewAllergy) {
			f.NewAllergy = ""
		}
	case ActionRemoveAllergy:
		f.Allergies.Remove(a.index)
	case ActionAddOperation:
		if f.Operations.Add(f.NewOperation) {
			f.NewOperation = ""
		}
	case ActionRemoveOperation:
		f.Operations.Remove(a.index)
	default:
		return false
	}
	return true
}

func (f PatientForm) Editing() bool {
	return f.ID != ""
}

func (f PatientForm) Validate(v *validator.Validator) FieldErrors {
	return validate(v, f)
}

// Payload builds the request body. Call it on a validated form.
func (f PatientForm) Payload() medical.PatientPayload {
	return medical.PatientPayload{
		Name:             f.Name,
		DateOfBirth:      f.Birthdate,
		Gender:           medical.Gender(f.Gender),
		Occupation:       f.Occupation,
		Address:          f.Address,
		Phone:            f.Phone,
		Email:            f.Email,
		OriginState:      f.OriginState,
		EmergencyContact: f.EmergencyContact,
		BloodType:        f.BloodType,
		Allergies:        f.Allergies.Values(),
		Operations:       f.Operations.Values(),
	}
}
