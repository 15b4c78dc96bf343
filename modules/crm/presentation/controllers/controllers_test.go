package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/testkit"
	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/controllers"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/eventbus"
)

const accountNumber = "HR1210010051863000160"

type crmFixture struct {
	bank      *testkit.Bank
	sink      *testkit.AuditSink
	customers *testkit.CustomerRepository
	opps      *testkit.OpportunityRepository
	router    *mux.Router
}

func newCRMFixture(t *testing.T) *crmFixture {
	t.Helper()
	bank := testkit.NewBank()
	sink := testkit.NewAuditSink()
	f := &crmFixture{
		bank:      bank,
		sink:      sink,
		customers: testkit.NewCustomerRepository(),
		opps:      testkit.NewOpportunityRepository(),
	}
	app := application.New(&application.ApplicationOptions{})
	users := bank.UserRepository()
	access := services.Access{
		Evaluator:    accessservices.NewEvaluator(bank.Directory, sink),
		Scoper:       accessservices.NewScoper(bank.Directory),
		Capabilities: accessservices.NewCapabilities(testkit.Authorizer(), accessservices.WithDenialAudit(sink)),
	}
	targets := services.NewTargetService(testkit.NewTargetRepository(), users, access, nil)
	bus := eventbus.NewEventPublisher(nil)
	bus.Subscribe(targets.HandleOpportunityWon)
	app.RegisterServices(
		orgservices.NewDirectoryService(bank.UnitRepository(), users, testkit.Authorizer(), sink, nil),
		services.NewCustomerService(f.customers, f.opps, users, access, nil),
		services.NewOpportunityService(f.opps, f.customers, access, bus, nil),
		services.NewActivityService(testkit.NewActivityRepository(), f.customers, f.opps, access, nil),
		targets,
		services.NewAnalyticsService(f.customers, f.opps, access),
		services.NewTaskService(testkit.NewTaskRepository(), f.customers, f.opps, users, access, nil),
	)

	router := mux.NewRouter()
	paging := controllers.Paging{Default: 2, Max: 5}
	for _, c := range []application.Controller{
		controllers.NewCustomersController(app, paging),
		controllers.NewOpportunitiesController(app, paging),
		controllers.NewActivitiesController(app, paging),
		controllers.NewTargetsController(app, paging),
		controllers.NewTasksController(app, paging),
		controllers.NewAnalyticsController(app),
	} {
		c.Register(router)
	}
	f.router = router
	return f
}

func (f *crmFixture) do(method, path, actor, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req = req.WithContext(testkit.Context())
	if actor != "" {
		req.Header.Set(constants.ActorHeader, f.bank.User(actor).ID.String())
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *crmFixture) customer(t *testing.T, owner string, hnw bool) *customer.Customer {
	t.Helper()
	u := f.bank.User(owner)
	c := customer.New(u.ID, u.UnitID, time.Now().UTC())
	c.FirstName = "Client"
	c.LastName = owner
	c.Stage = customer.StageLead
	c.AccountNumber = accountNumber
	c.EstimatedAssets = decimal.NewFromInt(4100000)
	c.HighNetWorth = hnw
	require.NoError(t, f.customers.Create(testkit.Context(), c))
	return c
}

func TestCustomersController_MaskedPayload(t *testing.T) {
	f := newCRMFixture(t)
	c := f.customer(t, "rm-a", true)

	rec := f.do(http.MethodGet, "/crm/api/customers/"+c.ID.String(), "mgr-a", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.NotContains(t, body, accountNumber)
	assert.NotContains(t, body, "4100000")
	var vm viewmodels.Customer
	require.NoError(t, json.Unmarshal([]byte(body), &vm))
	assert.True(t, vm.Masked)
	assert.Equal(t, "****", vm.EstimatedAssets)

	rec = f.do(http.MethodGet, "/crm/api/customers/"+c.ID.String(), "north", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), accountNumber)
}

func TestCustomersController_ListPaging(t *testing.T) {
	f := newCRMFixture(t)
	for i := 0; i < 3; i++ {
		f.customer(t, "rm-a", false)
	}
	f.customer(t, "rm-c", false)

	rec := f.do(http.MethodGet, "/crm/api/customers?page=2", "north", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page viewmodels.Page[viewmodels.Customer]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 2, page.Offset)

	rec = f.do(http.MethodGet, "/crm/api/customers?stage=bogus", "north", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomersController_Errors(t *testing.T) {
	f := newCRMFixture(t)
	c := f.customer(t, "rm-b", false)

	rec := f.do(http.MethodGet, "/crm/api/customers/"+c.ID.String(), "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/crm/api/customers/"+c.ID.String(), "rm-a", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/crm/api/customers/"+c.ID.String()+"/advance", "rm-b", `{"stage":"prospect","version":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/crm/api/customers/"+c.ID.String()+"/advance", "rm-b", `{"stage":"customer","version":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var vm viewmodels.Customer
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vm))
	assert.Equal(t, "customer", vm.Stage)
	assert.Equal(t, 2, vm.Version)

	rec = f.do(http.MethodGet, "/crm/api/customers/not-a-uuid", "rm-b", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomersController_Create(t *testing.T) {
	f := newCRMFixture(t)

	rec := f.do(http.MethodPost, "/crm/api/customers", "rm-a", `{"first_name":"Luka","last_name":"Babić","segment":"sme"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var vm viewmodels.Customer
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vm))
	assert.Equal(t, "suspect", vm.Stage)
	assert.Equal(t, f.bank.UnitID("RM-A").String(), vm.OwningUnitID)

	rec = f.do(http.MethodPost, "/crm/api/customers", "rm-a", `{"first_name":"","last_name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpportunitiesController_MoveToWon(t *testing.T) {
	f := newCRMFixture(t)
	c := f.customer(t, "rm-a", false)
	o := opportunity.New(c.ID, c.OwnerID, c.OwningUnitID, time.Now().UTC())
	o.Name = "Loan"
	o.ProductLine = opportunity.ProductRetailLoan
	o.Amount = decimal.NewFromInt(800)
	require.NoError(t, f.opps.Create(testkit.Context(), o))

	rec := f.do(http.MethodPost, "/crm/api/opportunities/"+o.ID.String()+"/move", "rm-a", `{"stage":"won","version":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var vm viewmodels.Opportunity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vm))
	assert.Equal(t, "won", vm.Stage)
	assert.Equal(t, "800.00", vm.ExpectedRevenue)

	rec = f.do(http.MethodPost, "/crm/api/opportunities/"+o.ID.String()+"/lose", "rm-a", `{"reason":"price","version":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnalyticsController(t *testing.T) {
	f := newCRMFixture(t)
	f.customer(t, "rm-a", false)

	rec := f.do(http.MethodGet, "/crm/api/analytics/funnel", "mgr-a", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var funnel []viewmodels.FunnelStage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&funnel))
	require.Len(t, funnel, 4)
	assert.EqualValues(t, 1, funnel[2].Count)

	rec = f.do(http.MethodGet, "/crm/api/analytics/win-rate?since=2026-01-01", "mgr-a", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rate viewmodels.WinRate
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rate))
	assert.Equal(t, "0.00", rate.Percent)

	rec = f.do(http.MethodGet, "/crm/api/analytics/pipeline", "rm-a", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOpportunitiesController_UpdateAndMoveToLost(t *testing.T) {
	f := newCRMFixture(t)
	c := f.customer(t, "rm-a", false)
	o := opportunity.New(c.ID, c.OwnerID, c.OwningUnitID, time.Now().UTC())
	o.Name = "Loan"
	o.ProductLine = opportunity.ProductRetailLoan
	o.Amount = decimal.NewFromInt(800)
	require.NoError(t, f.opps.Create(testkit.Context(), o))
	path := "/crm/api/opportunities/" + o.ID.String()

	rec := f.do(http.MethodPost, path+"/move", "rm-a", `{"stage":"lost","version":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	body := `{"name":"Bigger loan","customer_id":"` + c.ID.String() + `","product_line":"retail_loan","amount":"1200","probability":50,"version":1}`
	rec = f.do(http.MethodPut, path, "rm-a", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var vm viewmodels.Opportunity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vm))
	assert.Equal(t, "Bigger loan", vm.Name)
	assert.Equal(t, "600.00", vm.ExpectedRevenue)

	rec = f.do(http.MethodPut, path, "rm-a", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnalyticsController_PipelineHidesMaskedAmounts(t *testing.T) {
	f := newCRMFixture(t)
	c := f.customer(t, "rm-a", true)
	o := opportunity.New(c.ID, c.OwnerID, c.OwningUnitID, time.Now().UTC())
	o.Name = "Private mandate"
	o.ProductLine = opportunity.ProductInvestment
	o.Stage = opportunity.StageProposal
	o.Probability = opportunity.StageProposal.DefaultProbability()
	o.Amount = decimal.NewFromInt(1234567)
	o.Sensitive = true
	require.NoError(t, f.opps.Create(testkit.Context(), o))

	rec := f.do(http.MethodGet, "/crm/api/analytics/pipeline", "mgr-a", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "1234567")
	var stages []viewmodels.PipelineStage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stages))
	for _, st := range stages {
		if st.Stage == string(opportunity.StageProposal) {
			assert.EqualValues(t, 1, st.Count)
			assert.EqualValues(t, 1, st.Withheld)
			assert.Equal(t, "0.00", st.Amount)
		}
	}

	rec = f.do(http.MethodGet, "/crm/api/analytics/pipeline", "exec", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "1234567.00")
}

func TestTasksController_Lifecycle(t *testing.T) {
	f := newCRMFixture(t)
	c := f.customer(t, "rm-a", true)
	rm := f.bank.User("rm-a")
	due := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)

	body := `{"title":"Review mandate","description":"Fee waiver request","customer_id":"` + c.ID.String() +
		`","assignee_id":"` + rm.ID.String() + `","due_at":"` + due + `","sla_hours":8}`
	rec := f.do(http.MethodPost, "/crm/api/tasks", "north", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created viewmodels.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "overdue", created.Status)
	assert.Equal(t, "Fee waiver request", created.Description)
	require.NotNil(t, created.SLADeadline)

	rec = f.do(http.MethodGet, "/crm/api/tasks?status=overdue", "mgr-a", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page viewmodels.Page[viewmodels.Task]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Masked)
	assert.NotContains(t, rec.Body.String(), "Fee waiver request")

	rec = f.do(http.MethodGet, "/crm/api/tasks?status=stalled", "mgr-a", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/crm/api/tasks/"+created.ID, "rm-b", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/crm/api/tasks/"+created.ID+"/escalate", "north", `{"escalate_to_id":"`+f.bank.User("exec").ID.String()+`","version":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var escalated viewmodels.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&escalated))
	assert.Equal(t, 1, escalated.EscalationLevel)
	assert.Equal(t, 2, escalated.Version)

	rec = f.do(http.MethodPost, "/crm/api/tasks/"+created.ID+"/complete", "exec", `{"version":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done viewmodels.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&done))
	assert.Equal(t, "completed", done.Status)
	require.NotNil(t, done.CompletedAt)

	rec = f.do(http.MethodPost, "/crm/api/tasks/"+created.ID+"/complete", "exec", `{"version":3}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
