package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type SignupRequest struct {
	CIN   string `json:"cin"`
	Email string `json:"email"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CIN, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type SigninRequest struct {
	CinOrEmail string `json:"cin_or_email"`
	Password   string `json:"password"`
}

func (r SigninRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CinOrEmail, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}
