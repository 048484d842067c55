package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/ogurasousui/comp-decision-engine/internal/core/action"
	"github.com/ogurasousui/comp-decision-engine/internal/core/compensation"
	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEmployeeUseCase struct {
	upsertIn  employee.UpsertEmployeeInput
	upsertOut *employee.Employee
	upsertErr error
	getOut    *employee.Employee
	getErr    error
	listIn    employee.ListEmployeesInput
	listOut   []*employee.Employee
	listErr   error
}

func (f *fakeEmployeeUseCase) UpsertEmployee(_ context.Context, in employee.UpsertEmployeeInput) (*employee.Employee, error) {
	f.upsertIn = in
	return f.upsertOut, f.upsertErr
}

func (f *fakeEmployeeUseCase) GetEmployee(_ context.Context, _ employee.GetEmployeeInput) (*employee.Employee, error) {
	return f.getOut, f.getErr
}

func (f *fakeEmployeeUseCase) ListEmployees(_ context.Context, in employee.ListEmployeesInput) ([]*employee.Employee, error) {
	f.listIn = in
	return f.listOut, f.listErr
}

type fakeAnalyzeUseCase struct {
	in  compensation.AnalyzeInput
	out *compensation.BatchResult
	err error
}

func (f *fakeAnalyzeUseCase) AnalyzeCompany(_ context.Context, in compensation.AnalyzeInput) (*compensation.BatchResult, error) {
	f.in = in
	return f.out, f.err
}

type fakeActionUseCase struct {
	applyIn  action.ApplyInput
	applyOut *action.ApplyResult
	applyErr error
	listIn   action.ListAllInput
	listOut  []*action.Record
	listErr  error
	byEmpOut []*action.Record
	byEmpErr error
}

func (f *fakeActionUseCase) Apply(_ context.Context, in action.ApplyInput) (*action.ApplyResult, error) {
	f.applyIn = in
	return f.applyOut, f.applyErr
}

func (f *fakeActionUseCase) ListByEmployee(_ context.Context, _ action.ListByEmployeeInput) ([]*action.Record, error) {
	return f.byEmpOut, f.byEmpErr
}

func (f *fakeActionUseCase) ListAll(_ context.Context, in action.ListAllInput) ([]*action.Record, error) {
	f.listIn = in
	return f.listOut, f.listErr
}

type plainFormatter struct{}

func (plainFormatter) Format(amount float64) string {
	return fmt.Sprintf("%.0f", amount)
}

type routerFakes struct {
	employees *fakeEmployeeUseCase
	analyzer  *fakeAnalyzeUseCase
	actions   *fakeActionUseCase
}

func newTestRouter() (*gin.Engine, *routerFakes) {
	fakes := &routerFakes{
		employees: &fakeEmployeeUseCase{},
		analyzer:  &fakeAnalyzeUseCase{},
		actions:   &fakeActionUseCase{},
	}
	router := NewRouter(fakes.employees, fakes.analyzer, fakes.actions, plainFormatter{})
	return router, fakes
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func sampleEmployee() *employee.Employee {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	score := 8.0
	return &employee.Employee{
		SSID:            "123-45-6789",
		Name:            "Yamada Taro",
		Role:            "engineer",
		Performance:     employee.Performance{Score: &score},
		ExperienceYears: 5,
		Salary:          1_000_000,
		Revenue:         2_000_000,
		Status:          employee.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestEmployeeHandler_Upsert(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	fakes.employees.upsertOut = sampleEmployee()

	body := `{"ssid":"123-45-6789","name":"Yamada Taro","role":"engineer","performance":8,"experience_years":5,"salary":1000000,"revenue":2000000}`
	recorder := perform(router, http.MethodPost, "/api/v1/employees", body)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if fakes.employees.upsertIn.Performance.Score == nil || *fakes.employees.upsertIn.Performance.Score != 8 {
		t.Fatalf("expected numeric performance forwarded, got %+v", fakes.employees.upsertIn.Performance)
	}
	if got := gjson.Get(recorder.Body.String(), "ssid").String(); got != "123-45-6789" {
		t.Fatalf("unexpected response body: %s", recorder.Body.String())
	}
}

func TestEmployeeHandler_Upsert_ValidationError(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	fakes.employees.upsertErr = employee.ErrInvalidName

	recorder := perform(router, http.MethodPost, "/api/v1/employees", `{"ssid":"123-45-6789","name":""}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestPerformanceInput_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		raw       string
		wantScore *float64
		wantLabel string
	}{
		{"number", `7.5`, func() *float64 { v := 7.5; return &v }(), ""},
		{"string", `"good"`, nil, "good"},
		{"object", `{"label":"excellent"}`, nil, "excellent"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var input performanceInput
			if err := json.Unmarshal([]byte(tc.raw), &input); err != nil {
				t.Fatalf("unmarshal returned error: %v", err)
			}

			if tc.wantScore != nil {
				if input.Score == nil || *input.Score != *tc.wantScore {
					t.Fatalf("expected score %v, got %+v", *tc.wantScore, input.Score)
				}
			} else if input.Score != nil {
				t.Fatalf("expected no score, got %v", *input.Score)
			}
			if input.Label != tc.wantLabel {
				t.Fatalf("expected label %q, got %q", tc.wantLabel, input.Label)
			}
		})
	}
}

func TestEmployeeHandler_Get_NotFound(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	fakes.employees.getErr = employee.ErrNotFound

	recorder := perform(router, http.MethodGet, "/api/v1/employees/999-99-9999", "")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestEmployeeHandler_List_StatusFilter(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	fakes.employees.listOut = []*employee.Employee{sampleEmployee()}

	recorder := perform(router, http.MethodGet, "/api/v1/employees?status=active,%20fired", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	want := []employee.Status{employee.StatusActive, employee.StatusFired}
	if len(fakes.employees.listIn.Statuses) != 2 ||
		fakes.employees.listIn.Statuses[0] != want[0] ||
		fakes.employees.listIn.Statuses[1] != want[1] {
		t.Fatalf("expected normalized statuses %v, got %v", want, fakes.employees.listIn.Statuses)
	}
}

func TestAnalyzeHandler_Analyze(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	emp := sampleEmployee()
	suggestion := &employee.Suggestion{
		Action:          employee.ActionPromote,
		SuggestedSalary: 1_200_000,
		Source:          "heuristic",
	}
	fakes.analyzer.out = &compensation.BatchResult{
		Results: []compensation.Result{{Employee: emp, Suggestion: suggestion}},
		Summary: compensation.Summary{
			TotalEmployees:         1,
			TotalCurrentSalaries:   1_000_000,
			TotalSuggestedSalaries: 1_200_000,
			TotalRevenue:           2_000_000,
			ActionCounts:           map[employee.Action]int{employee.ActionPromote: 1},
			ProjectedSavings:       -200_000,
		},
	}

	recorder := perform(router, http.MethodPost, "/api/v1/analyze", `{"budget":5000000}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if fakes.analyzer.in.Budget == nil || *fakes.analyzer.in.Budget != 5_000_000 {
		t.Fatalf("expected budget forwarded, got %+v", fakes.analyzer.in.Budget)
	}

	body := recorder.Body.String()
	if got := gjson.Get(body, "results.0.suggested_salary_display").String(); got != "1200000" {
		t.Fatalf("unexpected suggested salary display %q", got)
	}
	if got := gjson.Get(body, "results.0.suggestion.action").String(); got != "PROMOTE" {
		t.Fatalf("unexpected suggestion action %q", got)
	}
	if got := gjson.Get(body, "summary.projected_savings").Float(); got != -200_000 {
		t.Fatalf("unexpected projected savings %v", got)
	}
}

func TestAnalyzeHandler_Analyze_NoEmployees(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	fakes.analyzer.err = compensation.ErrNoEmployees

	recorder := perform(router, http.MethodPost, "/api/v1/analyze", `{}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestActionHandler_Apply(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	prev, next, pct := 1_000_000.0, 1_100_000.0, 10.0
	fakes.actions.applyOut = &action.ApplyResult{
		Employee: sampleEmployee(),
		Record: &action.Record{
			ID:           "rec-1",
			EmployeeSSID: "123-45-6789",
			Action:       employee.ActionPromote,
			Effect:       action.Effect{PreviousSalary: &prev, NewSalary: &next, ChangePercent: &pct},
			AppliedAt:    time.Now().UTC(),
		},
	}

	recorder := perform(router, http.MethodPost, "/api/v1/employees/123-45-6789/actions", `{"action":"promote","note":"q1 review"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if fakes.actions.applyIn.Action != employee.ActionPromote {
		t.Fatalf("expected uppercased action, got %q", fakes.actions.applyIn.Action)
	}
	if fakes.actions.applyIn.SSID != "123-45-6789" {
		t.Fatalf("expected path ssid forwarded, got %q", fakes.actions.applyIn.SSID)
	}
	if got := gjson.Get(recorder.Body.String(), "record.effect.new_salary").Float(); got != 1_100_000 {
		t.Fatalf("unexpected effect in response: %s", recorder.Body.String())
	}
}

func TestActionHandler_Apply_AlreadyFired(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	fakes.actions.applyErr = action.ErrAlreadyFired

	recorder := perform(router, http.MethodPost, "/api/v1/employees/123-45-6789/actions", `{"action":"FIRE"}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestActionHandler_ListAll_LimitValidation(t *testing.T) {
	t.Parallel()

	router, fakes := newTestRouter()
	fakes.actions.listOut = []*action.Record{}

	if recorder := perform(router, http.MethodGet, "/api/v1/actions?limit=abc", ""); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric limit, got %d", recorder.Code)
	}
	if recorder := perform(router, http.MethodGet, "/api/v1/actions?limit=-1", ""); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", recorder.Code)
	}

	recorder := perform(router, http.MethodGet, "/api/v1/actions?limit=25", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if fakes.actions.listIn.Limit != 25 {
		t.Fatalf("expected limit 25 forwarded, got %d", fakes.actions.listIn.Limit)
	}
	if !strings.Contains(recorder.Body.String(), `"records"`) {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
}
