package seed_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/testkit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/seed"
)

func TestDirectory_SeedsDefaultsIdempotently(t *testing.T) {
	bank := testkit.NewBank()
	units := bank.UnitRepository()
	users := bank.UserRepository()
	s := &seed.Directory{Units: units, Users: users}
	ctx := testkit.Context()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.SeedUnits(ctx, seed.DefaultUnits))
		require.NoError(t, s.SeedUsers(ctx, seed.DefaultUsers))
	}

	ub, err := units.GetByCode(ctx, "UB")
	require.NoError(t, err)
	require.Equal(t, bank.UnitID("UB"), ub.ID)

	sar, err := units.GetByCode(ctx, "SAR")
	require.NoError(t, err)
	require.Equal(t, orgunit.LayerRegional, sar.Layer)
	require.Equal(t, ub.ID, *sar.ParentID)

	branch, err := units.GetByCode(ctx, "SAR-CNT")
	require.NoError(t, err)
	require.Equal(t, sar.ID, *branch.ParentID)

	desk, err := units.GetByCode(ctx, "SAR-CNT-RM1")
	require.NoError(t, err)
	require.Equal(t, branch.ID, *desk.ParentID)

	rm, err := users.GetByUsername(ctx, "rm1")
	require.NoError(t, err)
	require.Equal(t, desk.ID, rm.UnitID)
	require.Equal(t, orgunit.LayerIndividual, rm.Layer)
	require.True(t, rm.CheckPassword("rm123"))
	require.NotEqual(t, "rm123", rm.PasswordHash)

	admin, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, orgunit.LayerExecutive, admin.Layer)
}

func TestDirectory_MissingParentFails(t *testing.T) {
	bank := testkit.NewBank()
	s := &seed.Directory{Units: bank.UnitRepository(), Users: bank.UserRepository()}
	err := s.SeedUnits(testkit.Context(), []seed.UnitSpec{
		{Code: "ORPHAN", Name: "Orphan", Parent: "NOPE", Layer: orgunit.LayerBranch},
	})
	require.ErrorContains(t, err, "parent of ORPHAN")
}
