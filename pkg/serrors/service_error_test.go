package serrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("advance: %w", InvalidTransition("lead", "prospect"))
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.NotErrorIs(t, err, ErrAccessDenied)
}

func TestServiceError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := AuditWriteFailure(cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrAuditWriteFailure)
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusForbidden, HTTPStatus(AccessDenied("nope")))
	require.Equal(t, http.StatusConflict, HTTPStatus(ConcurrentModification("customer")))
	require.Equal(t, http.StatusForbidden, HTTPStatus(NewError("AUTHZ_FORBIDDEN", "permission denied", "")))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	require.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestBaseError_WithTemplateDataKeepsIdentity(t *testing.T) {
	base := NewError("AUTHZ_FORBIDDEN", "permission denied", "Authorization.PermissionDenied")
	withData := base.WithTemplateData(map[string]string{"object": "crm.targets"})
	require.ErrorIs(t, withData, base)
	require.Nil(t, base.TemplateData)
	require.Equal(t, "crm.targets", withData.TemplateData["object"])
}
