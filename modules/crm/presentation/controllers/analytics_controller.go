package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/mappers"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
)

// defaultWinRateWindow applies when the since parameter is absent.
const defaultWinRateWindow = 90 * 24 * time.Hour

type AnalyticsController struct {
	actors
	service  *services.AnalyticsService
	basePath string
	now      func() time.Time
}

func NewAnalyticsController(app application.Application) application.Controller {
	return &AnalyticsController{
		actors:   newActors(app),
		service:  app.Service(services.AnalyticsService{}).(*services.AnalyticsService),
		basePath: apiPrefix + "/analytics",
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *AnalyticsController) Key() string {
	return c.basePath
}

func (c *AnalyticsController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.ProvideActor())

	api.HandleFunc("/funnel", httpapi.Instrument(module, "crm.analytics.funnel", c.Funnel)).Methods(http.MethodGet)
	api.HandleFunc("/pipeline", httpapi.Instrument(module, "crm.analytics.pipeline", c.Pipeline)).Methods(http.MethodGet)
	api.HandleFunc("/win-rate", httpapi.Instrument(module, "crm.analytics.win_rate", c.WinRate)).Methods(http.MethodGet)
}

func (c *AnalyticsController) Funnel(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	funnel, err := c.service.Funnel(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.FunnelToViewModel(funnel))
}

func (c *AnalyticsController) Pipeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	totals, err := c.service.Pipeline(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.PipelineToViewModel(totals))
}

func (c *AnalyticsController) WinRate(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	since, err := httpapi.QueryTime(r, "since")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if since == nil {
		from := c.now().Add(-defaultWinRateWindow)
		since = &from
	}
	rate, err := c.service.WinRate(r.Context(), actor, *since)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.WinRateToViewModel(rate))
}
