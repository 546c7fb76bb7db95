package form

import (
	"net/url"

	"cphorme/internal/backend"
	"cphorme/internal/validator"
)

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func ParseLoginForm(values url.Values) LoginForm {
	return LoginForm{
		Email:    value(values, "email"),
		Password: values.Get("password"),
	}
}

func (f LoginForm) Validate(v *validator.Validator) FieldErrors {
	return validate(v, f)
}

type SignupForm struct {
	Username     string `form:"username" validate:"required"`
	Email        string `form:"email" validate:"required,email"`
	Password     string `form:"password" validate:"required,min=8"`
	Organization string `form:"organization" validate:"required"`
	LicenceNo    string `form:"licence_no" validate:"required"`
	Phone        string `form:"phone" validate:"required"`
	Specialty    string `form:"specialty" validate:"required"`
}

func ParseSignupForm(values url.Values) SignupForm {
	return SignupForm{
		Username:     value(values, "username"),
		Email:        value(values, "email"),
		Password:     values.Get("password"),
		Organization: value(values, "organization"),
		LicenceNo:    value(values, "licence_no"),
		Phone:        value(values, "phone"),
		Specialty:    value(values, "specialty"),
	}
}

func (f SignupForm) Validate(v *validator.Validator) FieldErrors {
	return validate(v, f)
}

func (f SignupForm) Request() backend.SignupRequest {
	return backend.SignupRequest{
		Username:     f.Username,
		Email:        f.Email,
		Password:     f.Password,
		Organization: f.Organization,
		LicenceNo:    f.LicenceNo,
		Phone:        f.Phone,
		Specialty:    f.Specialty,
	}
}
