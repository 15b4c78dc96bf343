package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

type ActivitiesController struct {
	actors
	service  *services.ActivityService
	paging   Paging
	basePath string
}

func NewActivitiesController(app application.Application, paging Paging) application.Controller {
	return &ActivitiesController{
		actors:   newActors(app),
		service:  app.Service(services.ActivityService{}).(*services.ActivityService),
		paging:   paging,
		basePath: apiPrefix + "/activities",
	}
}

func (c *ActivitiesController) Key() string {
	return c.basePath
}

func (c *ActivitiesController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.ProvideActor())

	api.HandleFunc("", httpapi.Instrument(module, "crm.activities.list", c.List)).Methods(http.MethodGet)
	api.HandleFunc("", httpapi.Instrument(module, "crm.activities.log", c.Log)).Methods(http.MethodPost)
	api.HandleFunc("/{id}", httpapi.Instrument(module, "crm.activities.get", c.Get)).Methods(http.MethodGet)
}

func (c *ActivitiesController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	params := &activity.FindParams{
		Type: activity.Type(strings.ToLower(r.URL.Query().Get("type"))),
	}
	var err error
	if params.CustomerID, err = httpapi.QueryUUID(r, "customer_id"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if params.OpportunityID, err = httpapi.QueryUUID(r, "opportunity_id"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	params.Limit, params.Offset = c.paging.read(r)

	items, total, err := c.service.List(r.Context(), actor, params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	page := viewmodels.Page[viewmodels.Activity]{
		Items:  make([]viewmodels.Activity, 0, len(items)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, v := range items {
		page.Items = append(page.Items, mappers.ActivityToViewModel(v))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, page)
}

func (c *ActivitiesController) Get(w http.ResponseWriter, r *http.Request) {
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
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.ActivityToViewModel(v))
}

func (c *ActivitiesController) Log(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	var dto activity.CreateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	a, err := c.service.Log(r.Context(), actor, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	v := accessservices.Visible[*activity.Activity]{Item: a, Decision: accessservices.Allow}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.ActivityToViewModel(v))
}
