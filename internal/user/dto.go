package user

import (
	"strings"

	errors "github.com/gfmoura/book-management/internal"
	"github.com/gfmoura/book-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate applies the registration rules: username format, email shape and
// the password policy. All field failures are collected into one response.
func (d *CreateUserDTO) Validate() *errors.AppError {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)

	var collected []errors.ValidationError
	for _, err := range []*errors.AppError{
		validation.ValidateUsername(d.Username),
		validation.ValidateEmail(d.Email),
		validation.ValidatePassword(d.Password),
		validation.ValidateName(d.FirstName, "first_name"),
		validation.ValidateName(d.LastName, "last_name"),
	} {
		if err == nil {
			continue
		}
		if details, ok := err.Details.(errors.ValidationErrors); ok {
			collected = append(collected, details.Errors...)
		}
	}

	if len(collected) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: collected})
	}
	return nil
}
