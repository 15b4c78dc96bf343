package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrument_UsesStableEndpointLabel(t *testing.T) {
	counter := apiRequests.WithLabelValues("crm", "crm.test.endpoint", "4xx")
	before := testutil.ToFloat64(counter)

	handler := Instrument("crm", "crm.test.endpoint", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/crm/api/customers/abc", nil))

	require.InDelta(t, before+1, testutil.ToFloat64(counter), 0.001)
}

func TestInstrument_DefaultsTo2xx(t *testing.T) {
	counter := apiRequests.WithLabelValues("crm", "crm.test.ok", "2xx")
	before := testutil.ToFloat64(counter)

	handler := Instrument("crm", "crm.test.ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.InDelta(t, before+1, testutil.ToFloat64(counter), 0.001)
}
