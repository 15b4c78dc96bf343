package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

type OpportunitiesController struct {
	actors
	service  *services.OpportunityService
	paging   Paging
	basePath string
}

func NewOpportunitiesController(app application.Application, paging Paging) application.Controller {
	return &OpportunitiesController{
		actors:   newActors(app),
		service:  app.Service(services.OpportunityService{}).(*services.OpportunityService),
		paging:   paging,
		basePath: apiPrefix + "/opportunities",
	}
}

func (c *OpportunitiesController) Key() string {
	return c.basePath
}

func (c *OpportunitiesController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.ProvideActor())

	api.HandleFunc("", httpapi.Instrument(module, "crm.opportunities.list", c.List)).Methods(http.MethodGet)
	api.HandleFunc("", httpapi.Instrument(module, "crm.opportunities.create", c.Create)).Methods(http.MethodPost)
	api.HandleFunc("/{id}", httpapi.Instrument(module, "crm.opportunities.get", c.Get)).Methods(http.MethodGet)
	api.HandleFunc("/{id}", httpapi.Instrument(module, "crm.opportunities.update", c.Update)).Methods(http.MethodPut)
	api.HandleFunc("/{id}/move", httpapi.Instrument(module, "crm.opportunities.move", c.Move)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/lose", httpapi.Instrument(module, "crm.opportunities.lose", c.Lose)).Methods(http.MethodPost)
}

func (c *OpportunitiesController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	params := &opportunity.FindParams{OpenOnly: q.Get("open") == "true"}
	if raw := q.Get("stage"); raw != "" {
		stage, err := opportunity.ParseStage(raw)
		if err != nil {
			httpapi.WriteServiceError(w, r, err)
			return
		}
		params.Stage = stage
	}
	var err error
	if params.CustomerID, err = httpapi.QueryUUID(r, "customer_id"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if params.OwnerID, err = httpapi.QueryUUID(r, "owner_id"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	params.Limit, params.Offset = c.paging.read(r)

	items, total, err := c.service.List(r.Context(), actor, params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	page := viewmodels.Page[viewmodels.Opportunity]{
		Items:  make([]viewmodels.Opportunity, 0, len(items)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, v := range items {
		page.Items = append(page.Items, mappers.OpportunityToViewModel(v))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, page)
}

func (c *OpportunitiesController) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	v, err := c.service.GetByID(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.OpportunityToViewModel(v))
}

func (c *OpportunitiesController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	var dto opportunity.CreateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	created, err := c.service.Create(r.Context(), actor, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	writeOpportunity(w, http.StatusCreated, created)
}

func (c *OpportunitiesController) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var dto opportunity.UpdateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	updated, err := c.service.Update(r.Context(), actor, id, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	writeOpportunity(w, http.StatusOK, updated)
}

func (c *OpportunitiesController) Move(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var dto opportunity.MoveDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	moved, err := c.service.Move(r.Context(), actor, id, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	writeOpportunity(w, http.StatusOK, moved)
}

func (c *OpportunitiesController) Lose(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var dto opportunity.LoseDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	lost, err := c.service.MarkLost(r.Context(), actor, id, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	writeOpportunity(w, http.StatusOK, lost)
}

func writeOpportunity(w http.ResponseWriter, status int, o *opportunity.Opportunity) {
	v := accessservices.Visible[*opportunity.Opportunity]{Item: o, Decision: accessservices.Allow}
	_ = httpapi.WriteJSON(w, status, mappers.OpportunityToViewModel(v))
}
