package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/testkit"
	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/logging/presentation/controllers"
	"github.com/jacksonlee411/branch-crm/modules/logging/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/logging/services"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/constants"
)

func TestAuditController_List(t *testing.T) {
	bank := testkit.NewBank()
	sink := testkit.NewAuditSink()
	authorizer := testkit.Authorizer()
	audit := services.NewAuditService(sink, accessservices.NewScoper(bank.Directory), accessservices.NewCapabilities(authorizer))

	app := application.New(&application.ApplicationOptions{})
	app.RegisterServices(
		audit,
		orgservices.NewDirectoryService(bank.UnitRepository(), bank.UserRepository(), authorizer, sink, nil),
	)
	router := mux.NewRouter()
	controllers.NewAuditController(app).Register(router)

	evaluator := accessservices.NewEvaluator(bank.Directory, audit)
	_, err := evaluator.Evaluate(context.Background(), bank.User("rm-b"), accessservices.ActionView, accessservices.Resource{
		Type: accessservices.ResourceCustomer, ID: "c1", OwningUnitID: bank.UnitID("RM-B"),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/logging/api/audit-records?resource_type=customer", nil)
	req.Header.Set(constants.ActorHeader, bank.User("north").ID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page viewmodels.AuditRecordPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, "c1", page.Items[0].ResourceID)
	require.Equal(t, "allow", page.Items[0].Decision)

	req = httptest.NewRequest(http.MethodGet, "/logging/api/audit-records", nil)
	req.Header.Set(constants.ActorHeader, bank.User("rm-b").ID.String())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/logging/api/audit-records", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
