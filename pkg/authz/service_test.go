package authz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/pkg/authz/policy"
)

func newTestService(t *testing.T, mode Mode) *Service {
	t.Helper()
	svc, err := NewService(Config{FlagProvider: NewStaticFlagProvider(mode)})
	require.NoError(t, err)
	return svc
}

func TestServiceAuthorize_RoleInheritance(t *testing.T) {
	svc := newTestService(t, ModeEnforce)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{"individual", "crm.customers", "view", true},
		{"individual", "crm.opportunities", "advance_stage", true},
		{"individual", "crm.targets", "create", false},
		{"individual", "crm.analytics", "view", false},
		{"branch", "crm.targets", "create", true},
		{"branch", "crm.customers", "view", true},
		{"branch", "org.users", "edit", false},
		{"regional", "logging.audit", "view", true},
		{"executive", "org.users", "edit", true},
		{"executive", "org.units", "create", true},
	}
	for _, tc := range cases {
		err := svc.Authorize(ctx, NewRequest(SubjectForRole(tc.role), tc.object, tc.action))
		if tc.allowed {
			require.NoError(t, err, "%s %s %s", tc.role, tc.object, tc.action)
		} else {
			require.ErrorIs(t, err, ErrForbidden, "%s %s %s", tc.role, tc.object, tc.action)
		}
	}
}

func TestServiceAuthorizeShadowMode(t *testing.T) {
	svc := newTestService(t, ModeShadow)
	req := NewRequest(SubjectForRole("individual"), "crm.targets", "create")
	require.NoError(t, svc.Authorize(context.Background(), req))

	allowed, err := svc.Check(context.Background(), req)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestServiceAuthorizeDisabledMode(t *testing.T) {
	svc := newTestService(t, ModeDisabled)
	require.Equal(t, ModeDisabled, svc.Mode())
	require.NoError(t, svc.Authorize(context.Background(), NewRequest("role:nobody", "org.users", "edit")))
}

func TestServiceFromFiles(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	policyPath := filepath.Join(dir, "policy.csv")
	require.NoError(t, os.WriteFile(modelPath, []byte(policy.Model), 0o644))
	require.NoError(t, os.WriteFile(policyPath, []byte("p, role:individual, global, crm.targets, create\n"), 0o644))

	svc, err := NewService(Config{
		ModelPath:    modelPath,
		PolicyPath:   policyPath,
		FlagProvider: NewStaticFlagProvider(ModeEnforce),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Authorize(context.Background(), NewRequest("role:individual", "crm.targets", "create")))
	require.NoError(t, svc.ReloadPolicy(context.Background()))
}

func TestServiceInspect(t *testing.T) {
	svc := newTestService(t, ModeEnforce)
	res, err := svc.Inspect(context.Background(), NewRequest("role:regional", "crm.analytics", "view"))
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.NotEmpty(t, res.Trace)
}

func TestConfigValidate(t *testing.T) {
	_, err := NewService(Config{ModelPath: "model.conf", FlagProvider: NewStaticFlagProvider(ModeEnforce)})
	require.Error(t, err)
	_, err = NewService(Config{})
	require.Error(t, err)
}

func TestFileFlagProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	provider := NewFileFlagProvider(path, ModeShadow)
	require.Equal(t, ModeShadow, provider.Mode())

	require.NoError(t, os.WriteFile(path, []byte("mode: disabled\n"), 0o644))
	require.Equal(t, ModeDisabled, provider.Mode())

	require.NoError(t, os.WriteFile(path, []byte("mode: [\n"), 0o644))
	require.Equal(t, ModeDisabled, provider.Mode())
}
