package authz

import (
	"fmt"

	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const (
	errorCodeForbidden = "AUTHZ_FORBIDDEN"
	errorLocaleKey     = "Authorization.PermissionDenied"
)

// ErrForbidden matches every capability denial under errors.Is.
var ErrForbidden = serrors.NewError(errorCodeForbidden, "permission denied", errorLocaleKey)

// forbiddenError builds a standardized error for denied policies.
func forbiddenError(req Request) *serrors.BaseError {
	return ErrForbidden.WithTemplateData(map[string]string{
		"object":  req.Object,
		"action":  req.Action,
		"domain":  req.Domain,
		"subject": req.Subject,
	})
}

// configError standardizes configuration validation errors.
func configError(msg string, args ...any) error {
	return fmt.Errorf("authz: "+msg, args...)
}
