package authz

import (
	"context"
	"strings"
)

const (
	GlobalDomain          = "global"
	rolePrefix            = "role"
	objectSeparator       = "."
	subjectSeparator      = ":"
	defaultActionWildcard = "*"
)

// Request encapsulates all parameters required to evaluate a Casbin rule.
type Request struct {
	Subject string
	Domain  string
	Object  string
	Action  string
}

// NewRequest constructs a Request in the global domain.
func NewRequest(subject, object, action string) Request {
	return Request{
		Subject: subject,
		Domain:  GlobalDomain,
		Object:  object,
		Action:  NormalizeAction(action),
	}
}

// SubjectForRole returns the canonical identifier for a role-based subject.
func SubjectForRole(roleSlug string) string {
	roleSlug = strings.TrimSpace(roleSlug)
	if roleSlug == "" {
		roleSlug = "unnamed"
	}
	if strings.HasPrefix(roleSlug, rolePrefix+subjectSeparator) {
		return roleSlug
	}
	return rolePrefix + subjectSeparator + strings.ToLower(roleSlug)
}

// ObjectName returns the canonical module.resource string, lowercased.
func ObjectName(module, resource string) string {
	module = strings.ToLower(strings.TrimSpace(module))
	resource = strings.ToLower(strings.TrimSpace(resource))
	if module == "" {
		module = "global"
	}
	if resource == "" {
		resource = "resource"
	}
	return module + objectSeparator + resource
}

// NormalizeAction returns a normalized action string.
func NormalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return defaultActionWildcard
	}
	return action
}

// Authorizer is satisfied by *Service.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) error
}
