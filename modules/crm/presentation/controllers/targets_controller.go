package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

type TargetsController struct {
	actors
	service  *services.TargetService
	paging   Paging
	basePath string
	now      func() time.Time
}

func NewTargetsController(app application.Application, paging Paging) application.Controller {
	return &TargetsController{
		actors:   newActors(app),
		service:  app.Service(services.TargetService{}).(*services.TargetService),
		paging:   paging,
		basePath: apiPrefix + "/targets",
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *TargetsController) Key() string {
	return c.basePath
}

func (c *TargetsController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.ProvideActor())

	api.HandleFunc("", httpapi.Instrument(module, "crm.targets.list", c.List)).Methods(http.MethodGet)
	api.HandleFunc("", httpapi.Instrument(module, "crm.targets.create", c.Create)).Methods(http.MethodPost)
	api.HandleFunc("/{id}", httpapi.Instrument(module, "crm.targets.get", c.Get)).Methods(http.MethodGet)
	api.HandleFunc("/{id}/achievements", httpapi.Instrument(module, "crm.targets.achievements", c.Achievements)).Methods(http.MethodGet)
	api.HandleFunc("/{id}/achievements", httpapi.Instrument(module, "crm.targets.record", c.RecordAchievement)).Methods(http.MethodPost)
}

func (c *TargetsController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	params := &target.FindParams{Type: target.Type(r.URL.Query().Get("type"))}
	var err error
	if params.AssigneeID, err = httpapi.QueryUUID(r, "assignee_id"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if params.ActiveAt, err = httpapi.QueryTime(r, "active_at"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	params.Limit, params.Offset = c.paging.read(r)

	items, total, err := c.service.List(r.Context(), actor, params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	now := c.now()
	page := viewmodels.Page[viewmodels.Target]{
		Items:  make([]viewmodels.Target, 0, len(items)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, t := range items {
		page.Items = append(page.Items, mappers.TargetToViewModel(t, now))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, page)
}

func (c *TargetsController) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	t, err := c.service.GetByID(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.TargetToViewModel(t, c.now()))
}

func (c *TargetsController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	var dto target.CreateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	t, err := c.service.Create(r.Context(), actor, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.TargetToViewModel(t, c.now()))
}

func (c *TargetsController) Achievements(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	items, err := c.service.Achievements(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	out := make([]viewmodels.Achievement, 0, len(items))
	for _, a := range items {
		out = append(out, mappers.AchievementToViewModel(a))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *TargetsController) RecordAchievement(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var dto target.AchievementDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	t, err := c.service.RecordAchievement(r.Context(), actor, id, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.TargetToViewModel(t, c.now()))
}
