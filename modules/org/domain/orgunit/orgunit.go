package orgunit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layer is a level of the bank hierarchy. Lower values sit higher up.
type Layer int

const (
	LayerExecutive Layer = iota + 1
	LayerRegional
	LayerBranch
	LayerIndividual
)

var layerNames = map[Layer]string{
	LayerExecutive:  "executive",
	LayerRegional:   "regional",
	LayerBranch:     "branch",
	LayerIndividual: "individual",
}

func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return fmt.Sprintf("layer(%d)", int(l))
}

func (l Layer) Valid() bool {
	_, ok := layerNames[l]
	return ok
}

// Below reports the layer one level down, or false for Individual.
func (l Layer) Below() (Layer, bool) {
	if !l.Valid() || l == LayerIndividual {
		return 0, false
	}
	return l + 1, true
}

// AtOrBelow reports whether l is the same level as other or further down.
func (l Layer) AtOrBelow(other Layer) bool {
	return l >= other
}

func ParseLayer(s string) (Layer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range layerNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

type Unit struct {
	ID        uuid.UUID
	Code      string
	Name      string
	ParentID  *uuid.UUID
	Layer     Layer
	Active    bool
	CreatedAt time.Time
}

func (u Unit) IsRoot() bool {
	return u.ParentID == nil
}

type FindParams struct {
	Layer      Layer
	ActiveOnly bool
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Unit, error)
	GetByCode(ctx context.Context, code string) (Unit, error)
	List(ctx context.Context, params *FindParams) ([]Unit, error)
	Create(ctx context.Context, unit *Unit) error
}
