package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
)

var validate = validator.New()

// validateInput checks required fields before any backend call is made
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.NewValidationError(err.Error())
	}

	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, fieldLabel(fe.Field()))
	}
	return pkgerrors.NewValidationError(fmt.Sprintf("Please fill in all required fields: %s", strings.Join(missing, ", ")))
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.NewValidationError(kind + " id is required")
	}
	return nil
}

// refreshed marks a failed re-fetch so callers can tell it apart from a
// rejected mutation
func refreshed(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.NewRefreshError(err)
}

// fieldLabel turns a Go field name such as RoleName into "role name"
func fieldLabel(field string) string {
	var b strings.Builder
	var prev rune
	for _, r := range field {
		if prev >= 'a' && prev <= 'z' && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.ToLower(b.String())
}
