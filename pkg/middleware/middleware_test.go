package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/constants"
)

func TestProvideActor(t *testing.T) {
	actorID := uuid.New()
	var seen uuid.UUID
	h := ProvideActor()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := composables.UseActorID(r.Context())
		require.NoError(t, err)
		seen = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/crm/api/customers", nil)
	req.Header.Set(constants.ActorHeader, actorID.String())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, actorID, seen)

	for _, header := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		req := httptest.NewRequest(http.MethodGet, "/crm/api/customers", nil)
		req.Header.Set(constants.ActorHeader, header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
		require.Contains(t, rec.Body.String(), "UNAUTHENTICATED")
	}
}

func TestWithLogger_BindsRequestIDAndRecovers(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	var requestID string
	ok := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = composables.UseRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "abc-123", requestID)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
	require.Equal(t, "request completed", hook.LastEntry().Message)
	require.Equal(t, http.StatusTeapot, hook.LastEntry().Data["status-code"])

	panicky := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec = httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/y", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}
