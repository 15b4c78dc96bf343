package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/pkg/configuration"
)

func TestPrometheusController_Path(t *testing.T) {
	cases := []struct {
		name string
		opts configuration.PrometheusOptions
		want string
	}{
		{name: "default", opts: configuration.PrometheusOptions{Enabled: true}, want: DefaultPath},
		{name: "configured", opts: configuration.PrometheusOptions{Enabled: true, Path: "/metrics"}, want: "/metrics"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewPrometheusController(tc.opts)
			require.Equal(t, tc.want, c.Key())

			r := mux.NewRouter()
			c.Register(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.want, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			require.Contains(t, rec.Body.String(), "go_goroutines")

			rec = httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.want, nil))
			require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}
