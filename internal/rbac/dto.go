package rbac

import (
	"strings"

	errors "github.com/gfmoura/book-management/internal"
	"github.com/gfmoura/book-management/internal/core/common/validation"
)

type CreateRoleDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

func (d CreateRoleDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", strings.TrimSpace(d.Name)).
		Required().
		MaxLength(100)
	v.Field("description", d.Description).
		MaxLength(validation.DescMaxLength)
	return v.Validate()
}

type CreatePermissionDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

func (d CreatePermissionDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", strings.TrimSpace(d.Name)).
		Required().
		MaxLength(100)
	v.Field("resource", strings.TrimSpace(d.Resource)).
		Required().
		MaxLength(100)
	v.Field("description", d.Description).
		MaxLength(validation.DescMaxLength)
	if err := v.Validate(); err != nil {
		return err
	}
	if !Action(d.Action).Valid() {
		return errors.NewValidationError(
			"action must be one of: create, read, update, delete, execute",
			errors.ErrCodeInvalidAction)
	}
	return nil
}

type AssignRolesDTO struct {
	RoleIDs []string `json:"role_ids"`
}

type AssignPermissionsDTO struct {
	PermissionIDs []string `json:"permission_ids"`
}
