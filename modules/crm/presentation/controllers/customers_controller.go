package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

type CustomersController struct {
	actors
	service  *services.CustomerService
	paging   Paging
	basePath string
}

func NewCustomersController(app application.Application, paging Paging) application.Controller {
	return &CustomersController{
		actors:   newActors(app),
		service:  app.Service(services.CustomerService{}).(*services.CustomerService),
		paging:   paging,
		basePath: apiPrefix + "/customers",
	}
}

func (c *CustomersController) Key() string {
	return c.basePath
}

func (c *CustomersController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.ProvideActor())

	api.HandleFunc("", httpapi.Instrument(module, "crm.customers.list", c.List)).Methods(http.MethodGet)
	api.HandleFunc("", httpapi.Instrument(module, "crm.customers.create", c.Create)).Methods(http.MethodPost)
	api.HandleFunc("/{id}", httpapi.Instrument(module, "crm.customers.get", c.Get)).Methods(http.MethodGet)
	api.HandleFunc("/{id}", httpapi.Instrument(module, "crm.customers.update", c.Update)).Methods(http.MethodPut)
	api.HandleFunc("/{id}/advance", httpapi.Instrument(module, "crm.customers.advance", c.Advance)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/qualification-score", httpapi.Instrument(module, "crm.customers.requalify", c.Requalify)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/reassign", httpapi.Instrument(module, "crm.customers.reassign", c.Reassign)).Methods(http.MethodPost)
}

type advanceRequest struct {
	Stage   string `json:"stage"`
	Version int    `json:"version"`
}

type reassignRequest struct {
	OwnerID uuid.UUID `json:"owner_id"`
}

func (c *CustomersController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	params := &customer.FindParams{
		Segment: customer.Segment(q.Get("segment")),
		Query:   q.Get("q"),
	}
	if raw := q.Get("stage"); raw != "" {
		stage, err := customer.ParseStage(raw)
		if err != nil {
			httpapi.WriteServiceError(w, r, err)
			return
		}
		params.Stage = stage
	}
	ownerID, err := httpapi.QueryUUID(r, "owner_id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	params.OwnerID = ownerID
	params.Limit, params.Offset = c.paging.read(r)

	items, total, err := c.service.List(r.Context(), actor, params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	page := viewmodels.Page[viewmodels.Customer]{
		Items:  make([]viewmodels.Customer, 0, len(items)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, v := range items {
		page.Items = append(page.Items, mappers.CustomerToViewModel(v))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, page)
}

func (c *CustomersController) Get(w http.ResponseWriter, r *http.Request) {
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
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.CustomerToViewModel(v))
}

func (c *CustomersController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	var dto customer.CreateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	created, err := c.service.Create(r.Context(), actor, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	c.writeOwn(w, http.StatusCreated, created)
}

func (c *CustomersController) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var dto customer.UpdateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	updated, err := c.service.Update(r.Context(), actor, id, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	c.writeOwn(w, http.StatusOK, updated)
}

func (c *CustomersController) Requalify(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	scored, err := c.service.Requalify(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	c.writeOwn(w, http.StatusOK, scored)
}

func (c *CustomersController) Advance(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var req advanceRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	stage, err := customer.ParseStage(req.Stage)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	updated, err := c.service.AdvanceStage(r.Context(), actor, id, stage, req.Version)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	c.writeOwn(w, http.StatusOK, updated)
}

func (c *CustomersController) Reassign(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var req reassignRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	moved, err := c.service.Reassign(r.Context(), actor, id, req.OwnerID)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	c.writeOwn(w, http.StatusOK, moved)
}

// writeOwn renders a record the actor just wrote. Masked records are
// read-only, so a successful write always renders unmasked.
func (c *CustomersController) writeOwn(w http.ResponseWriter, status int, written *customer.Customer) {
	v := accessservices.Visible[*customer.Customer]{Item: written, Decision: accessservices.Allow}
	_ = httpapi.WriteJSON(w, status, mappers.CustomerToViewModel(v))
}
