// Package testkit builds in-memory fixtures shared by service tests.
package testkit

import (
	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
)

// Bank is a small hierarchy:
//
//	UB (executive)
//	├── NORTH (regional)
//	│   ├── BR-A (branch) ── RM-A (individual)
//	│   └── BR-B (branch) ── RM-B (individual)
//	└── SOUTH (regional)
//	    └── BR-C (branch) ── RM-C (individual)
type Bank struct {
	Tree      *orgservices.Tree
	Directory *orgservices.TreeDirectory
	Units     map[string]orgunit.Unit
	Users     map[string]*staff.User
}

func NewBank() *Bank {
	b := &Bank{
		Tree:  orgservices.NewTree(),
		Units: make(map[string]orgunit.Unit),
		Users: make(map[string]*staff.User),
	}
	b.unit("UB", "", orgunit.LayerExecutive)
	b.unit("NORTH", "UB", orgunit.LayerRegional)
	b.unit("SOUTH", "UB", orgunit.LayerRegional)
	b.unit("BR-A", "NORTH", orgunit.LayerBranch)
	b.unit("BR-B", "NORTH", orgunit.LayerBranch)
	b.unit("BR-C", "SOUTH", orgunit.LayerBranch)
	b.unit("RM-A", "BR-A", orgunit.LayerIndividual)
	b.unit("RM-B", "BR-B", orgunit.LayerIndividual)
	b.unit("RM-C", "BR-C", orgunit.LayerIndividual)
	b.Directory = orgservices.NewTreeDirectory(b.Tree)

	b.user("exec", "UB")
	b.user("north", "NORTH")
	b.user("south", "SOUTH")
	b.user("mgr-a", "BR-A")
	b.user("mgr-b", "BR-B")
	b.user("mgr-c", "BR-C")
	b.user("rm-a", "RM-A")
	b.user("rm-b", "RM-B")
	b.user("rm-c", "RM-C")
	return b
}

func (b *Bank) unit(code, parent string, layer orgunit.Layer) {
	u := orgunit.Unit{ID: uuid.New(), Code: code, Name: code, Layer: layer, Active: true}
	if parent != "" {
		pid := b.Units[parent].ID
		u.ParentID = &pid
	}
	if err := b.Tree.Add(u); err != nil {
		panic(err)
	}
	b.Units[code] = u
}

func (b *Bank) user(username, unitCode string) {
	unit := b.Units[unitCode]
	b.Users[username] = &staff.User{
		ID:       uuid.New(),
		Username: username,
		UnitID:   unit.ID,
		Layer:    unit.Layer,
		Role:     staff.RoleSales,
		Active:   true,
	}
}

func (b *Bank) UnitID(code string) uuid.UUID {
	return b.Units[code].ID
}

func (b *Bank) User(username string) *staff.User {
	return b.Users[username]
}

// UnitList returns every unit, parents before children.
func (b *Bank) UnitList() []orgunit.Unit {
	var out []orgunit.Unit
	b.Tree.Walk(func(u orgunit.Unit, _ int) {
		out = append(out, u)
	})
	return out
}
