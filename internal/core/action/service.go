package action

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
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

const (
	defaultPromotePercent  = 10.0
	defaultDecreasePercent = -10.0

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// Service はアクション適用の状態機械と履歴参照のユースケースをまとめます。
type Service struct {
	employees employee.Repository
	actions   Repository
	clock     Clock
	tx        TransactionManager
}

// UseCase はアクションユースケースの公開インターフェースです。
type UseCase interface {
	Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error)
	ListByEmployee(ctx context.Context, in ListByEmployeeInput) ([]*Record, error)
	ListAll(ctx context.Context, in ListAllInput) ([]*Record, error)
}

// NewService は Service を生成します。
func NewService(employees employee.Repository, actions Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{employees: employees, actions: actions, clock: clock, tx: tx}
}

// ApplyInput はアクション適用の入力です。PercentOverride が nil の場合、
// 保存済み提案の推奨率、なければアクションごとの既定率が使われます。
type ApplyInput struct {
	SSID            string
	Action          employee.Action
	Note            string
	PercentOverride *float64
}

// ApplyResult はアクション適用の結果です。従業員の更新と履歴レコードの
// 作成は単一のトランザクションで行われます。
type ApplyResult struct {
	Employee *employee.Employee
	Record   *Record
}

// ListByEmployeeInput は従業員別履歴取得の入力です。
type ListByEmployeeInput struct {
	SSID string
}

// ListAllInput は全体履歴取得の入力です。Limit 0 は既定値を意味します。
type ListAllInput struct {
	Limit int
}

// Apply はアクションを従業員レコードへ適用し、監査レコードを一件作成します。
// 同一従業員への適用は行ロックで直列化されます。
func (s *Service) Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error) {
	ssid := strings.TrimSpace(in.SSID)
	if ssid == "" {
		return nil, fmt.Errorf("ssid: %w", employee.ErrInvalidSSID)
	}
	if !in.Action.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, in.Action)
	}

	var result *ApplyResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindBySSIDForUpdate(txCtx, ssid)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		effect, err := s.transition(emp, in, now)
		if err != nil {
			return err
		}
		emp.UpdatedAt = now

		updated, err := s.employees.Update(txCtx, emp)
		if err != nil {
			return err
		}

		record, err := s.actions.Insert(txCtx, &Record{
			ID:           uuid.NewString(),
			EmployeeSSID: ssid,
			Action:       in.Action,
			Note:         strings.TrimSpace(in.Note),
			Effect:       effect,
			AppliedAt:    now,
		})
		if err != nil {
			return err
		}

		result = &ApplyResult{Employee: updated, Record: record}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// transition は状態遷移を emp に適用し、効果詳細を返します。
func (s *Service) transition(emp *employee.Employee, in ApplyInput, now time.Time) (Effect, error) {
	percent := resolvePercent(in, emp)
	previousSalary := previousSalary(emp)

	switch in.Action {
	case employee.ActionFire:
		if emp.Status == employee.StatusFired {
			return Effect{}, fmt.Errorf("%s: %w", emp.SSID, ErrAlreadyFired)
		}
		previousStatus := emp.Status
		emp.Status = employee.StatusFired
		emp.TerminatedAt = &now
		newStatus := emp.Status
		return Effect{PreviousStatus: &previousStatus, NewStatus: &newStatus}, nil

	case employee.ActionPromote, employee.ActionDecreaseSalary:
		emp.Status = employee.StatusActive
		newSalary := math.Round(previousSalary * (1 + percent/100))
		emp.Salary = newSalary
		if in.Action == employee.ActionPromote {
			emp.LastPromotedAt = &now
		}
		return Effect{
			PreviousSalary: &previousSalary,
			NewSalary:      &newSalary,
			ChangePercent:  &percent,
		}, nil

	case employee.ActionNoChange:
		emp.Status = employee.StatusActive
		return Effect{Salary: &previousSalary}, nil

	default:
		return Effect{}, fmt.Errorf("%w: %q", ErrInvalidAction, in.Action)
	}
}

// ListByEmployee は従業員のアクション履歴を新しい順で返します。
func (s *Service) ListByEmployee(ctx context.Context, in ListByEmployeeInput) ([]*Record, error) {
	ssid := strings.TrimSpace(in.SSID)
	if ssid == "" {
		return nil, fmt.Errorf("ssid: %w", employee.ErrInvalidSSID)
	}

	var records []*Record
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.actions.ListByEmployee(txCtx, ssid)
		if err != nil {
			return err
		}
		records = result
		return nil
	}); err != nil {
		return nil, err
	}

	return records, nil
}

// ListAll は全体のアクション履歴を新しい順で返します。
func (s *Service) ListAll(ctx context.Context, in ListAllInput) ([]*Record, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var records []*Record
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.actions.ListAll(txCtx, limit)
		if err != nil {
			return err
		}
		records = result
		return nil
	}); err != nil {
		return nil, err
	}

	return records, nil
}

// resolvePercent は適用する変更率を決めます。明示指定が最優先、次に保存済み
// 提案の推奨率 (提案のアクションが一致する場合のみ)、最後に既定率です。
func resolvePercent(in ApplyInput, emp *employee.Employee) float64 {
	if in.PercentOverride != nil {
		return *in.PercentOverride
	}
	if emp.Suggestion != nil && emp.Suggestion.Action == in.Action {
		return emp.Suggestion.RecommendedChangePercent
	}
	switch in.Action {
	case employee.ActionPromote:
		return defaultPromotePercent
	case employee.ActionDecreaseSalary:
		return defaultDecreasePercent
	default:
		return 0
	}
}

// previousSalary は変更前給与を返します。給与未設定の場合は保存済み提案の
// 推定給与を優先し、それもなければ 0 とします。
func previousSalary(emp *employee.Employee) float64 {
	if emp.Salary > 0 {
		return emp.Salary
	}
	if emp.Suggestion != nil && emp.Suggestion.SuggestedSalary > 0 {
		return emp.Suggestion.SuggestedSalary
	}
	return 0
}
