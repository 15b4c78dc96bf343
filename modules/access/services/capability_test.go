package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/testkit"
	"github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/pkg/authz"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

func TestCapabilities_Require(t *testing.T) {
	bank := testkit.NewBank()
	caps := services.NewCapabilities(testkit.Authorizer())
	ctx := context.Background()

	require.NoError(t, caps.Require(ctx, bank.User("rm-a"), services.ObjectCustomers, services.ActionAdvanceStage))
	require.NoError(t, caps.Require(ctx, bank.User("mgr-a"), services.ObjectTargets, services.ActionCreate))
	require.NoError(t, caps.Require(ctx, bank.User("exec"), services.ObjectAudit, services.ActionView))

	err := caps.Require(ctx, bank.User("rm-a"), services.ObjectTargets, services.ActionCreate)
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	require.ErrorIs(t, err, authz.ErrForbidden)

	err = caps.Require(ctx, bank.User("rm-a"), services.ObjectAnalytics, services.ActionView)
	require.ErrorIs(t, err, serrors.ErrAccessDenied)

	inactive := *bank.User("exec")
	inactive.Active = false
	require.ErrorIs(t, caps.Require(ctx, &inactive, services.ObjectCustomers, services.ActionView), serrors.ErrAccessDenied)
}

func TestCapabilities_DenialAudit(t *testing.T) {
	bank := testkit.NewBank()
	sink := testkit.NewAuditSink()
	caps := services.NewCapabilities(testkit.Authorizer(), services.WithDenialAudit(sink))
	ctx := context.Background()

	require.NoError(t, caps.Require(ctx, bank.User("mgr-a"), services.ObjectTargets, services.ActionCreate))
	require.Zero(t, sink.Len())

	err := caps.Require(ctx, bank.User("rm-a"), services.ObjectTargets, services.ActionCreate)
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	require.Equal(t, 1, sink.Len())
	last := sink.Last()
	require.Equal(t, services.Deny, last.Decision)
	require.Equal(t, "missing_capability", last.Reason)
	require.Equal(t, services.ObjectTargets, last.ResourceType)

	sink.SetFail(true)
	err = caps.Require(ctx, bank.User("rm-a"), services.ObjectTargets, services.ActionCreate)
	require.ErrorIs(t, err, serrors.ErrAuditWriteFailure)
}
