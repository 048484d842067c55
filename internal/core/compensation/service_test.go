package compensation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	employees map[string]*employee.Employee
	order     []string
	stored    map[string]*employee.Suggestion
	storedAt  map[string]time.Time
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{
		employees: make(map[string]*employee.Employee),
		stored:    make(map[string]*employee.Suggestion),
		storedAt:  make(map[string]time.Time),
	}
}

func (r *fakeEmployeeRepo) seed(emps ...*employee.Employee) {
	for _, emp := range emps {
		if _, ok := r.employees[emp.SSID]; !ok {
			r.order = append(r.order, emp.SSID)
		}
		r.employees[emp.SSID] = emp
	}
}

func (r *fakeEmployeeRepo) Upsert(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	r.seed(e)
	return e, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	if _, ok := r.employees[e.SSID]; !ok {
		return nil, employee.ErrNotFound
	}
	r.employees[e.SSID] = e
	return e, nil
}

func (r *fakeEmployeeRepo) FindBySSID(_ context.Context, ssid string) (*employee.Employee, error) {
	emp, ok := r.employees[ssid]
	if !ok {
		return nil, employee.ErrNotFound
	}
	return emp, nil
}

func (r *fakeEmployeeRepo) FindBySSIDForUpdate(ctx context.Context, ssid string) (*employee.Employee, error) {
	return r.FindBySSID(ctx, ssid)
}

func (r *fakeEmployeeRepo) ListByStatus(_ context.Context, statuses []employee.Status) ([]*employee.Employee, error) {
	wanted := make(map[employee.Status]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	result := make([]*employee.Employee, 0, len(r.order))
	for _, ssid := range r.order {
		if emp := r.employees[ssid]; wanted[emp.Status] {
			result = append(result, emp)
		}
	}
	return result, nil
}

func (r *fakeEmployeeRepo) StoreSuggestion(_ context.Context, ssid string, suggestion *employee.Suggestion, analyzedAt time.Time) error {
	if _, ok := r.employees[ssid]; !ok {
		return employee.ErrNotFound
	}
	r.stored[ssid] = suggestion
	r.storedAt[ssid] = analyzedAt
	return nil
}

type stubAdvisor struct {
	name       string
	suggestion *employee.Suggestion
	err        error
	calls      int
}

func (a *stubAdvisor) Name() string {
	return a.name
}

func (a *stubAdvisor) Advise(_ context.Context, _ *employee.Employee, _ *employee.Suggestion, _ *float64, _ int) (*employee.Suggestion, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	if a.suggestion == nil {
		return nil, nil
	}
	clone := *a.suggestion
	return &clone, nil
}

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func TestService_Suggest_WithoutAdvisor(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), nil, nil, nil, nil, &captureLogger{})
	emp := testEmployee(nil)

	got := svc.Suggest(context.Background(), emp, nil, 1)

	if got.Source != SourceHeuristic {
		t.Fatalf("expected heuristic source, got %s", got.Source)
	}
}

func TestService_Suggest_AdvisorSuccess(t *testing.T) {
	t.Parallel()

	advisor := &stubAdvisor{
		name: "stub",
		suggestion: &employee.Suggestion{
			Action:          employee.ActionPromote,
			Confidence:      0.8,
			SuggestedSalary: 1_200_000,
		},
	}
	svc := NewService(newFakeEmployeeRepo(), nil, advisor, nil, nil, &captureLogger{})

	got := svc.Suggest(context.Background(), testEmployee(nil), nil, 1)

	if got.Action != employee.ActionPromote {
		t.Fatalf("expected advisor action, got %s", got.Action)
	}
	if got.Source != "stub" {
		t.Fatalf("expected advisor source tag, got %s", got.Source)
	}
	if advisor.calls != 1 {
		t.Fatalf("expected one advisor call, got %d", advisor.calls)
	}
}

func TestService_Suggest_AdvisorFailureFallsBack(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}
	advisor := &stubAdvisor{name: "stub", err: errors.New("service unavailable")}
	svc := NewService(newFakeEmployeeRepo(), nil, advisor, nil, nil, logger)
	emp := testEmployee(nil)

	got := svc.Suggest(context.Background(), emp, nil, 1)
	want := NewScorer(nil).Score(emp, nil, 1)

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected fallback identical to heuristic\ngot:  %+v\nwant: %+v", got, want)
	}
	if len(logger.lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(logger.lines))
	}
}

func TestService_Suggest_AdvisorMalformedFallsBack(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		suggestion *employee.Suggestion
	}{
		{"nil suggestion", nil},
		{"unknown action", &employee.Suggestion{Action: "DOUBLE_SALARY"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger := &captureLogger{}
			advisor := &stubAdvisor{name: "stub", suggestion: tc.suggestion}
			svc := NewService(newFakeEmployeeRepo(), nil, advisor, nil, nil, logger)

			got := svc.Suggest(context.Background(), testEmployee(nil), nil, 1)

			if got.Source != SourceHeuristic {
				t.Fatalf("expected heuristic fallback, got source %s", got.Source)
			}
			if len(logger.lines) != 1 {
				t.Fatalf("expected one log line, got %d", len(logger.lines))
			}
		})
	}
}

func TestService_AnalyzeBatch_SummaryInvariants(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), nil, nil, nil, nil, &captureLogger{})
	employees := []*employee.Employee{
		testEmployee(func(e *employee.Employee) {
			e.SSID = "100-00-0001"
			e.Performance = employee.Performance{Score: floatPtr(9)}
			e.ExperienceYears = 6
			e.Revenue = 3_000_000
		}),
		testEmployee(func(e *employee.Employee) {
			e.SSID = "100-00-0002"
		}),
		testEmployee(func(e *employee.Employee) {
			e.SSID = "100-00-0003"
			e.Salary = 900_000
			e.Revenue = 900_000
		}),
		testEmployee(func(e *employee.Employee) {
			e.SSID = "100-00-0004"
			e.Status = employee.StatusFired
		}),
	}

	batch, err := svc.AnalyzeBatch(context.Background(), employees, nil)
	if err != nil {
		t.Fatalf("AnalyzeBatch returned error: %v", err)
	}

	summary := batch.Summary
	if summary.TotalEmployees != 3 {
		t.Fatalf("expected 3 analyzed employees, got %d", summary.TotalEmployees)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(batch.Results))
	}
	for _, result := range batch.Results {
		if result.Employee.Status == employee.StatusFired {
			t.Fatalf("fired employee %s included in analysis", result.Employee.SSID)
		}
	}

	countSum := 0
	for _, count := range summary.ActionCounts {
		countSum += count
	}
	if countSum != summary.TotalEmployees {
		t.Fatalf("action counts sum %d != total employees %d", countSum, summary.TotalEmployees)
	}

	if summary.TotalCurrentSalaries != 2_900_000 {
		t.Fatalf("expected current salaries 2900000, got %.0f", summary.TotalCurrentSalaries)
	}
	if summary.TotalRevenue != 5_100_000 {
		t.Fatalf("expected total revenue 5100000, got %.0f", summary.TotalRevenue)
	}

	var suggestedSum float64
	for _, result := range batch.Results {
		suggestedSum += result.Suggestion.SuggestedSalary
	}
	if summary.TotalSuggestedSalaries != suggestedSum {
		t.Fatalf("suggested salary sum mismatch: %.0f vs %.0f", summary.TotalSuggestedSalaries, suggestedSum)
	}
	if summary.ProjectedSavings != summary.TotalCurrentSalaries-summary.TotalSuggestedSalaries {
		t.Fatalf("projected savings mismatch: %.0f", summary.ProjectedSavings)
	}
	if summary.CurrentProfitMargin != 1-summary.TotalCurrentSalaries/summary.TotalRevenue {
		t.Fatalf("current profit margin mismatch: %v", summary.CurrentProfitMargin)
	}
	if summary.ProjectedProfitMargin != 1-summary.TotalSuggestedSalaries/summary.TotalRevenue {
		t.Fatalf("projected profit margin mismatch: %v", summary.ProjectedProfitMargin)
	}
}

func TestService_AnalyzeBatch_NoEmployees(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), nil, nil, nil, nil, &captureLogger{})

	cases := map[string][]*employee.Employee{
		"empty": {},
		"all fired": {
			testEmployee(func(e *employee.Employee) { e.Status = employee.StatusFired }),
		},
	}

	for name, employees := range cases {
		if _, err := svc.AnalyzeBatch(context.Background(), employees, nil); !errors.Is(err, ErrNoEmployees) {
			t.Fatalf("%s: expected ErrNoEmployees, got %v", name, err)
		}
	}
}

func TestService_AnalyzeCompany_PersistsSuggestions(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	repo.seed(
		testEmployee(func(e *employee.Employee) { e.SSID = "200-00-0001" }),
		testEmployee(func(e *employee.Employee) {
			e.SSID = "200-00-0002"
			e.Revenue = 3_000_000
		}),
		testEmployee(func(e *employee.Employee) {
			e.SSID = "200-00-0003"
			e.Status = employee.StatusFired
		}),
	)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, nil, nil, &stubClock{now: now}, nil, &captureLogger{})

	batch, err := svc.AnalyzeCompany(context.Background(), AnalyzeInput{})
	if err != nil {
		t.Fatalf("AnalyzeCompany returned error: %v", err)
	}

	if batch.Summary.TotalEmployees != 2 {
		t.Fatalf("expected 2 analyzed employees, got %d", batch.Summary.TotalEmployees)
	}
	if len(repo.stored) != 2 {
		t.Fatalf("expected 2 stored suggestions, got %d", len(repo.stored))
	}
	if _, ok := repo.stored["200-00-0003"]; ok {
		t.Fatalf("suggestion stored for fired employee")
	}

	for _, result := range batch.Results {
		ssid := result.Employee.SSID
		if !reflect.DeepEqual(repo.stored[ssid], result.Suggestion) {
			t.Fatalf("stored suggestion mismatch for %s", ssid)
		}
		if !repo.storedAt[ssid].Equal(now) {
			t.Fatalf("expected analyzed at %v, got %v", now, repo.storedAt[ssid])
		}
		if result.Employee.Suggestion == nil {
			t.Fatalf("expected suggestion attached to employee %s", ssid)
		}
		if result.Employee.LastAnalyzedAt == nil || !result.Employee.LastAnalyzedAt.Equal(now) {
			t.Fatalf("expected last analyzed at %v, got %v", now, result.Employee.LastAnalyzedAt)
		}
	}
}

func TestService_AnalyzeCompany_NoActiveEmployees(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), nil, nil, nil, nil, &captureLogger{})

	if _, err := svc.AnalyzeCompany(context.Background(), AnalyzeInput{}); !errors.Is(err, ErrNoEmployees) {
		t.Fatalf("expected ErrNoEmployees, got %v", err)
	}
}
