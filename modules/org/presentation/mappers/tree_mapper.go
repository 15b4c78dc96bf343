package mappers

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/modules/org/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/org/services"
)

func UnitToViewModel(u orgunit.Unit) viewmodels.Unit {
	vm := viewmodels.Unit{
		ID:     u.ID.String(),
		Code:   u.Code,
		Name:   u.Name,
		Layer:  u.Layer.String(),
		Active: u.Active,
	}
	if u.ParentID != nil {
		parent := u.ParentID.String()
		vm.ParentID = &parent
	}
	return vm
}

// TreeToViewModel nests the tree under its root. Siblings are ordered by
// name, then code, then id.
func TreeToViewModel(tree *services.Tree) *viewmodels.TreeNode {
	nodes := make(map[uuid.UUID]*viewmodels.TreeNode, tree.Len())
	var root *viewmodels.TreeNode
	tree.Walk(func(u orgunit.Unit, depth int) {
		node := &viewmodels.TreeNode{Unit: UnitToViewModel(u), Depth: depth, Children: []*viewmodels.TreeNode{}}
		nodes[u.ID] = node
		if u.ParentID == nil {
			root = node
			return
		}
		if parent, ok := nodes[*u.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	})
	for _, n := range nodes {
		sortSiblings(n.Children)
	}
	return root
}

func sortSiblings(siblings []*viewmodels.TreeNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		ni := strings.TrimSpace(siblings[i].Name)
		nj := strings.TrimSpace(siblings[j].Name)
		if ni != nj {
			return ni < nj
		}
		if siblings[i].Code != siblings[j].Code {
			return siblings[i].Code < siblings[j].Code
		}
		return siblings[i].ID < siblings[j].ID
	})
}

// UserToViewModel never exposes the password hash.
func UserToViewModel(u *staff.User) *viewmodels.User {
	vm := &viewmodels.User{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		UnitID:    u.UnitID.String(),
		Layer:     u.Layer.String(),
		Role:      string(u.Role),
		Grants:    make([]viewmodels.Grant, 0, len(u.Grants)),
		Active:    u.Active,
	}
	for _, g := range u.Grants {
		vm.Grants = append(vm.Grants, viewmodels.Grant{UnitID: g.UnitID.String(), Delegate: g.Delegate})
	}
	return vm
}
