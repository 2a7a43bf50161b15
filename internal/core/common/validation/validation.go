package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	errors "github.com/gfmoura/book-management/internal"
)

// Limits mirrored by the database schema.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 100
	PasswordMinLength = 8
	NameMaxLength     = 100
	TitleMaxLength    = 50
	DescMaxLength     = 255
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case []string:
			if len(v) == 0 {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(v) < min {
				message := fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(v) > max {
				message := fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Matches(pattern *regexp.Regexp, message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" {
			if !pattern.MatchString(v) {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				if appErr, ok := errors.IsAppError(err); ok {
					if details, ok := appErr.Details.(errors.ValidationErrors); ok {
						validationErrors = append(validationErrors, details.Errors...)
					} else {
						validationErrors = append(validationErrors, errors.ValidationError{
							Field:   field.FieldName,
							Message: appErr.Message,
							Code:    string(appErr.Code),
						})
					}
				}
			}
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// ValidateUsername enforces the username format shared by registration and
// lookups: 3-100 chars, letters, digits, underscores, dots and hyphens.
func ValidateUsername(username string) *errors.AppError {
	validator := NewValidator()
	validator.Field("username", strings.TrimSpace(username)).
		Required().
		MinLength(UsernameMinLength).
		MaxLength(UsernameMaxLength).
		Matches(usernamePattern, "username must contain only letters, numbers, underscores, dots and hyphens", errors.ErrCodeInvalidUsername)
	return validator.Validate()
}

func ValidateEmail(email string) *errors.AppError {
	validator := NewValidator()
	validator.Field("email", strings.TrimSpace(email)).
		Required().
		MaxLength(255).
		Matches(emailPattern, "email must be a valid address", errors.ErrCodeInvalidEmail)
	return validator.Validate()
}

// ValidatePassword enforces the password policy: minimum length plus at
// least one uppercase, lowercase, digit and special character.
func ValidatePassword(password string) *errors.AppError {
	validator := NewValidator()
	validator.Field("password", password).
		Required().
		MinLength(PasswordMinLength).
		Custom(func(value interface{}) *errors.AppError {
			v, ok := value.(string)
			if !ok || v == "" {
				return nil
			}
			var hasUpper, hasLower, hasDigit, hasSpecial bool
			for _, r := range v {
				switch {
				case unicode.IsUpper(r):
					hasUpper = true
				case unicode.IsLower(r):
					hasLower = true
				case unicode.IsDigit(r):
					hasDigit = true
				case strings.ContainsRune("!@#$%^&*()_+-=[]{}|;:,.<>?", r):
					hasSpecial = true
				}
			}
			switch {
			case !hasUpper:
				return errors.NewValidationFieldError("password", "password must contain at least one uppercase letter", errors.ErrCodeWeakPassword)
			case !hasLower:
				return errors.NewValidationFieldError("password", "password must contain at least one lowercase letter", errors.ErrCodeWeakPassword)
			case !hasDigit:
				return errors.NewValidationFieldError("password", "password must contain at least one number", errors.ErrCodeWeakPassword)
			case !hasSpecial:
				return errors.NewValidationFieldError("password", "password must contain at least one special character", errors.ErrCodeWeakPassword)
			}
			return nil
		})
	return validator.Validate()
}

func ValidateName(name, fieldName string) *errors.AppError {
	validator := NewValidator()
	validator.Field(fieldName, strings.TrimSpace(name)).
		MaxLength(NameMaxLength)
	return validator.Validate()
}
