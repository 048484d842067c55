package compensation

import (
	"context"
	"log"
	"time"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Logger はアドバイザ失敗の観測用ログ出力です。*log.Logger が満たします。
type Logger interface {
	Printf(format string, v ...any)
}

// Advisor は外部推論サービスへの橋渡しの抽象です。heuristic を参考情報として
// 受け取り、検証済みの提案を返すか、失敗をエラーとして返します。
type Advisor interface {
	Name() string
	Advise(ctx context.Context, emp *employee.Employee, heuristic *employee.Suggestion, budget *float64, totalEmployees int) (*employee.Suggestion, error)
}

// Service は提案の計算と一括分析のユースケースをまとめます。
type Service struct {
	repo    employee.Repository
	scorer  *Scorer
	advisor Advisor
	clock   Clock
	tx      TransactionManager
	logger  Logger
}

// UseCase は報酬分析ユースケースの公開インターフェースです。
type UseCase interface {
	AnalyzeCompany(ctx context.Context, in AnalyzeInput) (*BatchResult, error)
}

// NewService は Service を生成します。advisor が nil の場合はヒューリスティック
// パスのみが使用されます。
func NewService(repo employee.Repository, scorer *Scorer, advisor Advisor, clock Clock, tx TransactionManager, logger Logger) *Service {
	if scorer == nil {
		scorer = NewScorer(nil)
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, scorer: scorer, advisor: advisor, clock: clock, tx: tx, logger: logger}
}

// AnalyzeInput は一括分析の入力です。Budget が nil なら予算制約なしです。
type AnalyzeInput struct {
	Budget *float64
}

// Result は従業員一人分の分析結果です。
type Result struct {
	Employee   *employee.Employee
	Suggestion *employee.Suggestion
}

// Summary は一括分析の集計です。
type Summary struct {
	TotalEmployees         int
	Budget                 *float64
	TotalCurrentSalaries   float64
	TotalSuggestedSalaries float64
	TotalRevenue           float64
	ActionCounts           map[employee.Action]int
	ProjectedSavings       float64
	CurrentProfitMargin    float64
	ProjectedProfitMargin  float64
}

// BatchResult は一括分析の結果と集計です。
type BatchResult struct {
	Results []Result
	Summary Summary
}

// Suggest は一人の従業員に対する提案を返します。ヒューリスティックは常に計算し、
// アドバイザが構成されていれば試行して、整形式の応答のみを採用します。
// アドバイザの失敗は呼び出し元へ伝播させず、ログに残してフォールバックします。
func (s *Service) Suggest(ctx context.Context, emp *employee.Employee, budget *float64, totalEmployees int) *employee.Suggestion {
	heuristic := s.scorer.Score(emp, budget, totalEmployees)
	if s.advisor == nil {
		return heuristic
	}

	suggestion, err := s.advisor.Advise(ctx, emp, heuristic, budget, totalEmployees)
	if err != nil {
		s.logger.Printf("compensation: advisor %s failed for employee %s, falling back to heuristic: %v", s.advisor.Name(), emp.SSID, err)
		return heuristic
	}
	if suggestion == nil || !suggestion.Action.IsValid() {
		s.logger.Printf("compensation: advisor %s returned malformed suggestion for employee %s, falling back to heuristic", s.advisor.Name(), emp.SSID)
		return heuristic
	}

	suggestion.Source = s.advisor.Name()
	return suggestion
}

// AnalyzeBatch は与えられた従業員集合を順番に分析します。FIRED の従業員は
// 対象から除外されます。永続化は行いません。
func (s *Service) AnalyzeBatch(ctx context.Context, employees []*employee.Employee, budget *float64) (*BatchResult, error) {
	active := make([]*employee.Employee, 0, len(employees))
	for _, emp := range employees {
		if emp == nil || emp.Status == employee.StatusFired {
			continue
		}
		active = append(active, emp)
	}
	if len(active) == 0 {
		return nil, ErrNoEmployees
	}

	results := make([]Result, 0, len(active))
	counts := make(map[employee.Action]int)
	summary := Summary{
		TotalEmployees: len(active),
		Budget:         budget,
		ActionCounts:   counts,
	}

	for _, emp := range active {
		suggestion := s.Suggest(ctx, emp, budget, len(active))
		results = append(results, Result{Employee: emp, Suggestion: suggestion})

		counts[suggestion.Action]++
		summary.TotalCurrentSalaries += emp.Salary
		summary.TotalSuggestedSalaries += suggestion.SuggestedSalary
		summary.TotalRevenue += emp.Revenue
	}

	summary.ProjectedSavings = summary.TotalCurrentSalaries - summary.TotalSuggestedSalaries
	summary.CurrentProfitMargin = profitMargin(summary.TotalRevenue, summary.TotalCurrentSalaries)
	summary.ProjectedProfitMargin = profitMargin(summary.TotalRevenue, summary.TotalSuggestedSalaries)

	return &BatchResult{Results: results, Summary: summary}, nil
}

// AnalyzeCompany は ACTIVE な全従業員を分析し、各従業員の提案スナップショットと
// 分析時刻を永続化します。提案の計算はトランザクションの外で行われ、
// 計算が完了してから書き込みます。
func (s *Service) AnalyzeCompany(ctx context.Context, in AnalyzeInput) (*BatchResult, error) {
	var employees []*employee.Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListByStatus(txCtx, []employee.Status{employee.StatusActive})
		if err != nil {
			return err
		}
		employees = result
		return nil
	}); err != nil {
		return nil, err
	}

	batch, err := s.AnalyzeBatch(ctx, employees, in.Budget)
	if err != nil {
		return nil, err
	}

	analyzedAt := s.clock.Now()
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		for _, result := range batch.Results {
			if err := s.repo.StoreSuggestion(txCtx, result.Employee.SSID, result.Suggestion, analyzedAt); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, result := range batch.Results {
		result.Employee.Suggestion = result.Suggestion
		at := analyzedAt
		result.Employee.LastAnalyzedAt = &at
	}

	return batch, nil
}

func profitMargin(revenue, salaries float64) float64 {
	if revenue == 0 {
		return 0
	}
	return 1 - salaries/revenue
}
