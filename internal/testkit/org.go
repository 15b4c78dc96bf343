package testkit

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type nopTx struct {
	repo.Tx
}

// Context returns a context carrying a transaction placeholder, so
// composables.InTx joins it instead of looking for a pool. In-memory
// repositories never touch it.
func Context() context.Context {
	return composables.WithTx(context.Background(), nopTx{})
}

// UnitRepository stores units in the bank's directory so that new units are
// immediately visible to evaluation.
type UnitRepository struct {
	directory *orgservices.TreeDirectory
}

func (b *Bank) UnitRepository() *UnitRepository {
	return &UnitRepository{directory: b.Directory}
}

func (r *UnitRepository) GetByID(ctx context.Context, id uuid.UUID) (orgunit.Unit, error) {
	return r.directory.Lookup(ctx, id)
}

func (r *UnitRepository) GetByCode(ctx context.Context, code string) (orgunit.Unit, error) {
	units, err := r.List(ctx, &orgunit.FindParams{})
	if err != nil {
		return orgunit.Unit{}, err
	}
	for _, u := range units {
		if u.Code == code {
			return u, nil
		}
	}
	return orgunit.Unit{}, serrors.NotFound("org unit "+code, nil)
}

func (r *UnitRepository) List(ctx context.Context, params *orgunit.FindParams) ([]orgunit.Unit, error) {
	ids, err := r.directory.AllUnitIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []orgunit.Unit
	for _, id := range ids {
		u, err := r.directory.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if params != nil && params.Layer != 0 && u.Layer != params.Layer {
			continue
		}
		if params != nil && params.ActiveOnly && !u.Active {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UnitRepository) Create(_ context.Context, unit *orgunit.Unit) error {
	return r.directory.AddUnit(*unit)
}

type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*staff.User
}

// UserRepository seeds a repository with copies of the bank's users.
func (b *Bank) UserRepository() *UserRepository {
	r := &UserRepository{users: make(map[uuid.UUID]*staff.User)}
	for _, u := range b.Users {
		copied := *u
		r.users[u.ID] = &copied
	}
	return r
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*staff.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, serrors.NotFound("user", nil)
	}
	copied := *u
	copied.Grants = append([]staff.Grant(nil), u.Grants...)
	return &copied, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*staff.User, error) {
	r.mu.Lock()
	var id uuid.UUID
	for _, u := range r.users {
		if u.Username == username {
			id = u.ID
		}
	}
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *UserRepository) List(ctx context.Context, params *staff.FindParams) ([]*staff.User, error) {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.users))
	for id, u := range r.users {
		if params != nil && params.ActiveOnly && !u.Active {
			continue
		}
		if params != nil && len(params.UnitIDs) > 0 && !containsID(params.UnitIDs, u.UnitID) {
			continue
		}
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	out := make([]*staff.User, 0, len(ids))
	for _, id := range ids {
		u, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, user *staff.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return serrors.NewServiceError(409, serrors.CodeConflict, "username already exists", nil)
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *UserRepository) UpdateAssignment(_ context.Context, id, unitID uuid.UUID, layer orgunit.Layer) error {
	return r.mutate(id, func(u *staff.User) {
		u.UnitID = unitID
		u.Layer = layer
	})
}

func (r *UserRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	return r.mutate(id, func(u *staff.User) { u.Active = active })
}

func (r *UserRepository) AddGrant(_ context.Context, id uuid.UUID, grant staff.Grant) error {
	return r.mutate(id, func(u *staff.User) { u.Grants = append(u.Grants, grant) })
}

func (r *UserRepository) RemoveGrant(_ context.Context, id, unitID uuid.UUID) error {
	return r.mutate(id, func(u *staff.User) {
		kept := u.Grants[:0]
		for _, g := range u.Grants {
			if g.UnitID != unitID {
				kept = append(kept, g)
			}
		}
		u.Grants = kept
	})
}

func (r *UserRepository) mutate(id uuid.UUID, fn func(u *staff.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return serrors.NotFound("user", nil)
	}
	fn(u)
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
