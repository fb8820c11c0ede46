package dto

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/grzegorz-kurc/MyStorage/pkg/constant"
)

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

func (f ForgotPasswordInput) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
	)
}

type ResetPasswordInput struct {
	UserID          string `json:"user_id"`
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required,
			validation.Length(constant.MinPasswordLength, constant.MaxPasswordLength)),
		validation.Field(&r.ConfirmPassword, validation.Required,
			validation.By(stringEquals(r.NewPassword))),
	)
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (c ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.CurrentPassword, validation.Required),
		validation.Field(&c.NewPassword, validation.Required,
			validation.Length(constant.MinPasswordLength, constant.MaxPasswordLength)),
		validation.Field(&c.ConfirmPassword, validation.Required,
			validation.By(stringEquals(c.NewPassword))),
	)
}

func stringEquals(want string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New("passwords do not match")
		}
		return nil
	}
}
