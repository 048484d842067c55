package employee

import (
	"context"
	"fmt"
	"strings"
	"time"
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

const maxPerformanceScore = 10

// Service は従業員レコードに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は従業員ユースケースの公開インターフェースです。
type UseCase interface {
	UpsertEmployee(ctx context.Context, in UpsertEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// UpsertEmployeeInput は従業員の作成・置換時の入力です。
type UpsertEmployeeInput struct {
	SSID            string
	Name            string
	Role            string
	Performance     Performance
	ExperienceYears float64
	Salary          float64
	Revenue         float64
}

// GetEmployeeInput は従業員取得時の入力です。
type GetEmployeeInput struct {
	SSID string
}

// ListEmployeesInput は一覧取得時の入力です。ステータス未指定なら全件を返します。
type ListEmployeesInput struct {
	Statuses []Status
}

// UpsertEmployee はコア属性を作成または置換します。提案スナップショットと
// 在籍状態は既存レコードのものが保持されます。
func (s *Service) UpsertEmployee(ctx context.Context, in UpsertEmployeeInput) (*Employee, error) {
	ssid, err := normalizeSSID(in.SSID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	if in.ExperienceYears < 0 {
		return nil, ErrInvalidExperience
	}
	if in.Salary < 0 {
		return nil, ErrInvalidSalary
	}
	if in.Revenue < 0 {
		return nil, ErrInvalidRevenue
	}

	perf, err := normalizePerformance(in.Performance)
	if err != nil {
		return nil, err
	}

	var saved *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		emp := &Employee{
			SSID:            ssid,
			Name:            name,
			Role:            strings.TrimSpace(in.Role),
			Performance:     perf,
			ExperienceYears: in.ExperienceYears,
			Salary:          in.Salary,
			Revenue:         in.Revenue,
			Status:          StatusActive,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		result, err := s.repo.Upsert(txCtx, emp)
		if err != nil {
			return err
		}
		saved = result
		return nil
	}); err != nil {
		return nil, err
	}

	return saved, nil
}

// GetEmployee は SSID で従業員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	ssid, err := normalizeSSID(in.SSID)
	if err != nil {
		return nil, err
	}

	var found *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindBySSID(txCtx, ssid)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// ListEmployees は指定ステータスの従業員一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error) {
	statuses := in.Statuses
	if len(statuses) == 0 {
		statuses = []Status{StatusActive, StatusFired}
	}
	for _, status := range statuses {
		if !isValidStatus(status) {
			return nil, ErrInvalidStatus
		}
	}

	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListByStatus(txCtx, statuses)
		if err != nil {
			return err
		}
		employees = result
		return nil
	}); err != nil {
		return nil, err
	}

	return employees, nil
}

func normalizeSSID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("ssid: %w", ErrInvalidSSID)
	}
	return trimmed, nil
}

func normalizePerformance(p Performance) (Performance, error) {
	if p.Score != nil && strings.TrimSpace(p.Label) != "" {
		return Performance{}, ErrInvalidPerformance
	}
	if p.Score != nil {
		if *p.Score < 0 || *p.Score > maxPerformanceScore {
			return Performance{}, ErrInvalidPerformance
		}
		score := *p.Score
		return Performance{Score: &score}, nil
	}
	return Performance{Label: strings.TrimSpace(p.Label)}, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusFired:
		return true
	default:
		return false
	}
}
