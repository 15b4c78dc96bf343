package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/modules/org/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/org/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

const module = "org"

type OrgAPIController struct {
	app       application.Application
	directory *services.DirectoryService
	apiPrefix string
}

func NewOrgAPIController(app application.Application) application.Controller {
	return &OrgAPIController{
		app:       app,
		directory: app.Service(services.DirectoryService{}).(*services.DirectoryService),
		apiPrefix: "/org/api",
	}
}

func (c *OrgAPIController) Key() string {
	return c.apiPrefix
}

func (c *OrgAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.ProvideActor())

	api.HandleFunc("/units", httpapi.Instrument(module, "org.units.list", c.ListUnits)).Methods(http.MethodGet)
	api.HandleFunc("/units", httpapi.Instrument(module, "org.units.create", c.CreateUnit)).Methods(http.MethodPost)
	api.HandleFunc("/hierarchy", httpapi.Instrument(module, "org.hierarchy", c.GetHierarchy)).Methods(http.MethodGet)

	api.HandleFunc("/users", httpapi.Instrument(module, "org.users.onboard", c.OnboardUser)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/reassign", httpapi.Instrument(module, "org.users.reassign", c.ReassignUser)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/grants", httpapi.Instrument(module, "org.users.grant", c.GrantVisibility)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/grants/{unit_id}", httpapi.Instrument(module, "org.users.revoke", c.RevokeVisibility)).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/disable", httpapi.Instrument(module, "org.users.disable", c.DisableUser)).Methods(http.MethodPost)
}

type reassignRequest struct {
	UnitID uuid.UUID `json:"unit_id"`
}

type grantRequest struct {
	UnitID   uuid.UUID `json:"unit_id"`
	Delegate bool      `json:"delegate"`
}

func (c *OrgAPIController) ListUnits(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	units, err := c.directory.ListUnits(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	out := make([]viewmodels.Unit, 0, len(units))
	for _, u := range units {
		out = append(out, mappers.UnitToViewModel(u))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *OrgAPIController) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	tree, err := c.directory.Hierarchy(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.TreeToViewModel(tree))
}

func (c *OrgAPIController) CreateUnit(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	var dto services.CreateUnitDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	unit, err := c.directory.CreateUnit(r.Context(), actor, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.UnitToViewModel(*unit))
}

func (c *OrgAPIController) OnboardUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	var dto staff.CreateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	user, err := c.directory.OnboardUser(r.Context(), actor, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.UserToViewModel(user))
}

func (c *OrgAPIController) ReassignUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	userID, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var req reassignRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	user, err := c.directory.ReassignUser(r.Context(), actor, userID, req.UnitID)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.UserToViewModel(user))
}

func (c *OrgAPIController) GrantVisibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	userID, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var req grantRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	grant := staff.Grant{UnitID: req.UnitID, Delegate: req.Delegate}
	if err := c.directory.GrantVisibility(r.Context(), actor, userID, grant); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) RevokeVisibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	userID, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	unitID, err := httpapi.PathUUID(r, "unit_id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if err := c.directory.RevokeVisibility(r.Context(), actor, userID, unitID); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) DisableUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	userID, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if err := c.directory.DisableUser(r.Context(), actor, userID); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) actor(w http.ResponseWriter, r *http.Request) (*staff.User, bool) {
	actor, err := c.directory.CurrentActor(r.Context())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return nil, false
	}
	return actor, true
}
