package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/go-playground/validator/v10"
)

// Field names used as keys of common.ValidationError.
const (
	FieldFirstName = "firstname"
	FieldLastName  = "lastname"
	FieldEmail     = "email"
	FieldUsername  = "username"
	FieldPassword  = "password"

	FieldIdentifier   = "identifier"
	FieldCode         = "code"
	FieldRefreshToken = "refresh_token"
)

var (
	personNameRe = regexp.MustCompile(`^[A-Za-z-']{1,50}(\s[A-Za-z-']{1,50})?$`)
	usernameRe   = regexp.MustCompile(`^[a-zA-Z0-9]+([._-][a-zA-Z0-9]+)*$`)

	fieldTags = map[string]string{
		FieldFirstName: "personname",
		FieldLastName:  "personname",
		FieldEmail:     "required,email",
		FieldUsername:  "username",
		FieldPassword:  "password",

		FieldIdentifier:   "required,min=2,max=150",
		FieldCode:         "required,len=6,number",
		FieldRefreshToken: "required,uuid",
	}

	formatMessages = map[string]string{
		FieldFirstName: "Invalid firstname",
		FieldLastName:  "Invalid lastname",
		FieldEmail:     "Invalid email address",
		FieldUsername:  "Invalid username",
		FieldPassword:  "Invalid password",

		FieldIdentifier:   "Invalid email or username",
		FieldCode:         "Invalid code",
		FieldRefreshToken: "Invalid refresh token",
	}
)

const (
	msgEmailInUse    = "Email address is already in use"
	msgUsernameInUse = "Username is already in use"

	passwordSpecials = "@#$%^&+="
)

// RegistrationInput is the raw input of a registration request.
type RegistrationInput struct {
	FirstName string `json:"firstname" validate:"personname"`
	LastName  string `json:"lastname" validate:"personname"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"username"`
	Password  string `json:"password" validate:"password"`
}

// Validator applies the account field format rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator with the account rules registered.
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic("register validation " + tag + ": " + err.Error())
		}
	}
	mustRegister("personname", func(fl validator.FieldLevel) bool {
		return personNameRe.MatchString(fl.Field().String())
	})
	mustRegister("username", func(fl validator.FieldLevel) bool {
		return validUsername(fl.Field().String())
	})
	mustRegister("password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Registration returns field → message for every invalid field of in.
func (v *Validator) Registration(in RegistrationInput) map[string]string {
	violations := make(map[string]string)

	err := v.validate.Struct(in)
	if err == nil {
		return violations
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			violations[fe.Field()] = formatMessages[fe.Field()]
		}
	}
	return violations
}

// Field returns the violation message for value under field's rule, or "".
func (v *Validator) Field(field, value string) string {
	tag, ok := fieldTags[field]
	if !ok {
		return ""
	}
	if err := v.validate.Var(value, tag); err != nil {
		return formatMessages[field]
	}
	return ""
}

// Check validates every field → value pair of values and returns a
// common.ValidationError naming each invalid field, or nil.
func (v *Validator) Check(values map[string]string) error {
	violations := make(map[string]string)
	for field, value := range values {
		if msg := v.Field(field, value); msg != "" {
			violations[field] = msg
		}
	}
	return common.NewValidationError(violations)
}

func validUsername(s string) bool {
	return len(s) >= 4 && len(s) <= 20 && usernameRe.MatchString(s)
}

func strongPassword(s string) bool {
	if utf8.RuneCountInString(s) < 8 || strings.ContainsAny(s, "\r\n") {
		return false
	}
	var digit, lower, upper, special bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return digit && lower && upper && special
}
