package identity

import (
	"github.com/go-playground/validator/v10"

	"github.com/learnspace/learnspace/core"
)

var (
	signUpRoleTag  = "signuprole"
	signUpRoleText = "role must be one of: student, faculty"

	statusTag  = "approvalstatus"
	statusText = "invalid approval status"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(signUpRoleTag, signUpRoleValidation)
	core.RegisterCustomTranslation(signUpRoleTag, signUpRoleText)

	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)
}

// Custom Validators

// signUpRoleValidation checks that the provided role is self-registrable.
func signUpRoleValidation(fl validator.FieldLevel) bool {
	role := Role(fl.Field().String())
	for _, r := range SignUpRoles {
		if role == r {
			return true
		}
	}
	return false
}

// statusValidation checks that the provided value is a known approval status.
func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
