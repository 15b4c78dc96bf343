package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/configuration"
)

const DefaultPath = "/debug/prometheus"

// PrometheusController serves the default registry, which carries the access
// decision, authz and request counters registered by the modules.
type PrometheusController struct {
	path    string
	handler http.Handler
}

func NewPrometheusController(opts configuration.PrometheusOptions) application.Controller {
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	return &PrometheusController{
		path: path,
		handler: promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		}),
	}
}

func (c *PrometheusController) Key() string {
	return c.path
}

func (c *PrometheusController) Register(r *mux.Router) {
	r.Handle(c.path, c.handler).Methods(http.MethodGet)
}
