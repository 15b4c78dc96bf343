package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

type TasksController struct {
	actors
	service  *services.TaskService
	paging   Paging
	basePath string
	now      func() time.Time
}

func NewTasksController(app application.Application, paging Paging) application.Controller {
	return &TasksController{
		actors:   newActors(app),
		service:  app.Service(services.TaskService{}).(*services.TaskService),
		paging:   paging,
		basePath: apiPrefix + "/tasks",
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *TasksController) Key() string {
	return c.basePath
}

func (c *TasksController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.ProvideActor())

	api.HandleFunc("", httpapi.Instrument(module, "crm.tasks.list", c.List)).Methods(http.MethodGet)
	api.HandleFunc("", httpapi.Instrument(module, "crm.tasks.create", c.Create)).Methods(http.MethodPost)
	api.HandleFunc("/{id}", httpapi.Instrument(module, "crm.tasks.get", c.Get)).Methods(http.MethodGet)
	api.HandleFunc("/{id}/complete", httpapi.Instrument(module, "crm.tasks.complete", c.Complete)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/escalate", httpapi.Instrument(module, "crm.tasks.escalate", c.Escalate)).Methods(http.MethodPost)
}

func (c *TasksController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	params := &task.FindParams{}
	q := r.URL.Query()
	var err error
	if v := q.Get("status"); v != "" {
		if params.Status, err = task.ParseStatus(v); err != nil {
			httpapi.WriteServiceError(w, r, err)
			return
		}
	}
	if v := q.Get("priority"); v != "" {
		if params.Priority, err = task.ParsePriority(v); err != nil {
			httpapi.WriteServiceError(w, r, err)
			return
		}
	}
	if params.AssigneeID, err = httpapi.QueryUUID(r, "assignee_id"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if params.CustomerID, err = httpapi.QueryUUID(r, "customer_id"); err != nil {
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
	page := viewmodels.Page[viewmodels.Task]{
		Items:  make([]viewmodels.Task, 0, len(items)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, v := range items {
		page.Items = append(page.Items, mappers.TaskToViewModel(v, now))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, page)
}

func (c *TasksController) Get(w http.ResponseWriter, r *http.Request) {
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
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.TaskToViewModel(v, c.now()))
}

func (c *TasksController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	var dto task.CreateDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	t, err := c.service.Create(r.Context(), actor, &dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	c.writeOwn(w, http.StatusCreated, t)
}

func (c *TasksController) Complete(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(actor *staff.User, id uuid.UUID) (*task.Task, error) {
		var dto task.CompleteDTO
		if err := httpapi.DecodeJSON(r, &dto); err != nil {
			return nil, err
		}
		return c.service.Complete(r.Context(), actor, id, &dto)
	})
}

func (c *TasksController) Escalate(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(actor *staff.User, id uuid.UUID) (*task.Task, error) {
		var dto task.EscalateDTO
		if err := httpapi.DecodeJSON(r, &dto); err != nil {
			return nil, err
		}
		return c.service.Escalate(r.Context(), actor, id, &dto)
	})
}

func (c *TasksController) transition(w http.ResponseWriter, r *http.Request, apply func(*staff.User, uuid.UUID) (*task.Task, error)) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	t, err := apply(actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	c.writeOwn(w, http.StatusOK, t)
}

// writeOwn renders a task the actor just changed. A successful mutation
// implies a plain allow.
func (c *TasksController) writeOwn(w http.ResponseWriter, status int, t *task.Task) {
	v := accessservices.Visible[*task.Task]{Item: t, Decision: accessservices.Allow}
	_ = httpapi.WriteJSON(w, status, mappers.TaskToViewModel(v, c.now()))
}
