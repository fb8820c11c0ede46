package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/grzegorz-kurc/MyStorage/pkg/constant"
)

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required,
			validation.Length(constant.MinPasswordLength, constant.MaxPasswordLength)),
	)
}

type ResendConfirmationInput struct {
	Email string `json:"email"`
}

func (r ResendConfirmationInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ConfirmEmailInput struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

func (c ConfirmEmailInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.UserID, validation.Required),
		validation.Field(&c.Token, validation.Required),
	)
}
