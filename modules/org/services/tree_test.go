package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/testkit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

func unit(code string, parent *orgunit.Unit, layer orgunit.Layer) orgunit.Unit {
	u := orgunit.Unit{ID: uuid.New(), Code: code, Name: code, Layer: layer, Active: true}
	if parent != nil {
		pid := parent.ID
		u.ParentID = &pid
	}
	return u
}

func TestTreeAdd_Validation(t *testing.T) {
	root := unit("UB", nil, orgunit.LayerExecutive)
	region := unit("R1", &root, orgunit.LayerRegional)
	orphan := unit("X", &orgunit.Unit{ID: uuid.New()}, orgunit.LayerRegional)

	cases := []struct {
		name string
		unit orgunit.Unit
	}{
		{"missing id", orgunit.Unit{Code: "NOID", Layer: orgunit.LayerExecutive}},
		{"unknown layer", orgunit.Unit{ID: uuid.New(), Code: "L9", Layer: 9}},
		{"non executive root", unit("R2", nil, orgunit.LayerRegional)},
		{"second root", unit("UB2", nil, orgunit.LayerExecutive)},
		{"duplicate id", orgunit.Unit{ID: region.ID, Code: "R9", ParentID: &root.ID, Layer: orgunit.LayerRegional}},
		{"duplicate code", unit("R1", &root, orgunit.LayerRegional)},
		{"unknown parent", orphan},
		{"layer skip", unit("B1", &root, orgunit.LayerBranch)},
		{"layer upward", unit("E1", &region, orgunit.LayerExecutive)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree := services.NewTree()
			require.NoError(t, tree.Add(root))
			require.NoError(t, tree.Add(region))
			err := tree.Add(tc.unit)
			require.ErrorIs(t, err, serrors.ErrValidation)
			require.Equal(t, 2, tree.Len())
		})
	}
}

func TestTreeAncestorsAndSubtree(t *testing.T) {
	bank := testkit.NewBank()
	tree := bank.Tree

	chain, err := tree.AncestorsOf(bank.UnitID("RM-B"))
	require.NoError(t, err)
	codes := make([]string, len(chain))
	for i, u := range chain {
		codes[i] = u.Code
	}
	require.Equal(t, []string{"UB", "NORTH", "BR-B"}, codes)

	chain, err = tree.AncestorsOf(bank.UnitID("UB"))
	require.NoError(t, err)
	require.Empty(t, chain)

	sub, err := tree.SubtreeOf(bank.UnitID("NORTH"))
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{
		bank.UnitID("NORTH"), bank.UnitID("BR-A"), bank.UnitID("BR-B"), bank.UnitID("RM-A"), bank.UnitID("RM-B"),
	}, sub)
	require.Equal(t, bank.UnitID("NORTH"), sub[0])

	sub, err = tree.SubtreeOf(bank.UnitID("RM-C"))
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{bank.UnitID("RM-C")}, sub)

	_, err = tree.SubtreeOf(uuid.New())
	require.ErrorIs(t, err, serrors.ErrNotFound)
	_, err = tree.AncestorsOf(uuid.New())
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestBuildTree_AnyOrder(t *testing.T) {
	bank := testkit.NewBank()
	units := bank.UnitList()
	for i, j := 0, len(units)-1; i < j; i, j = i+1, j-1 {
		units[i], units[j] = units[j], units[i]
	}

	tree, err := services.BuildTree(units)
	require.NoError(t, err)
	require.Equal(t, len(units), tree.Len())
	got, ok := tree.LookupCode("BR-C")
	require.True(t, ok)
	require.Equal(t, bank.UnitID("BR-C"), got.ID)
}

func TestBuildTree_RejectsDanglingParent(t *testing.T) {
	root := unit("UB", nil, orgunit.LayerExecutive)
	dangling := unit("R1", &orgunit.Unit{ID: uuid.New()}, orgunit.LayerRegional)
	_, err := services.BuildTree([]orgunit.Unit{dangling, root})
	require.ErrorIs(t, err, serrors.ErrValidation)
}

func TestTreeWalkDepth(t *testing.T) {
	bank := testkit.NewBank()
	depths := map[string]int{}
	bank.Tree.Walk(func(u orgunit.Unit, depth int) {
		depths[u.Code] = depth
	})
	require.Equal(t, 0, depths["UB"])
	require.Equal(t, 1, depths["SOUTH"])
	require.Equal(t, 2, depths["BR-A"])
	require.Equal(t, 3, depths["RM-C"])
	require.Len(t, depths, 9)
}

func TestTreeDirectory(t *testing.T) {
	bank := testkit.NewBank()
	ctx := context.Background()

	u, err := bank.Directory.Lookup(ctx, bank.UnitID("BR-A"))
	require.NoError(t, err)
	require.Equal(t, orgunit.LayerBranch, u.Layer)

	_, err = bank.Directory.Lookup(ctx, uuid.New())
	require.ErrorIs(t, err, serrors.ErrNotFound)

	all, err := bank.Directory.AllUnitIDs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 9)

	branch := bank.Units["BR-C"]
	require.NoError(t, bank.Directory.AddUnit(unit("RM-C2", &branch, orgunit.LayerIndividual)))
	sub, err := bank.Directory.SubtreeOf(ctx, branch.ID)
	require.NoError(t, err)
	require.Len(t, sub, 3)
}
