package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/logging/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/logging/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/logging/services"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/configuration"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

type AuditController struct {
	app      application.Application
	audit    *services.AuditService
	basePath string
}

func NewAuditController(app application.Application) application.Controller {
	return &AuditController{
		app:      app,
		audit:    app.Service(services.AuditService{}).(*services.AuditService),
		basePath: "/logging/api/audit-records",
	}
}

func (c *AuditController) Key() string {
	return c.basePath
}

func (c *AuditController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideActor())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
}

func (c *AuditController) List(w http.ResponseWriter, r *http.Request) {
	// the org module registers after logging, so resolve per request
	directory := c.app.Service(orgservices.DirectoryService{}).(*orgservices.DirectoryService)
	actor, err := directory.CurrentActor(r.Context())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}

	conf := configuration.Use()
	limit, offset := httpapi.Paging(r, conf.PageSize, conf.MaxPageSize)
	params := &auditrecord.FindParams{
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Decision:     auditrecord.Decision(r.URL.Query().Get("decision")),
		Limit:        limit,
		Offset:       offset,
	}
	if params.ActorID, err = httpapi.QueryUUID(r, "actor_id"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if params.From, err = httpapi.QueryTime(r, "from"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if params.To, err = httpapi.QueryTime(r, "to"); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}

	records, total, err := c.audit.ListAuditRecords(r.Context(), actor, params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	page := &viewmodels.AuditRecordPage{
		Items: make([]*viewmodels.AuditRecord, 0, len(records)),
		Total: total,
		Limit: limit,
		Page:  offset/limit + 1,
	}
	for _, rec := range records {
		page.Items = append(page.Items, mappers.AuditRecordToViewModel(rec))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, page)
}
