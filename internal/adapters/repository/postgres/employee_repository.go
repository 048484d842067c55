package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
	pgdb "github.com/ogurasousui/comp-decision-engine/internal/platform/db/postgres"
)

const checkViolationCode = "23514"

const employeeColumns = `
       ssid,
       name,
       role,
       performance,
       experience_years,
       salary,
       revenue,
       status,
       suggestion,
       last_analyzed_at,
       last_promoted_at,
       terminated_at,
       created_at,
       updated_at`

// EmployeeRepository は PostgreSQL を利用した従業員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Upsert は SSID をキーにコア属性を作成または置換します。既存レコードの
// 在籍状態・提案スナップショット・各タイムスタンプは保持されます。
func (r *EmployeeRepository) Upsert(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	performance, err := json.Marshal(e.Performance)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal performance: %w", err)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (ssid, name, role, performance, experience_years, salary, revenue, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (ssid) DO UPDATE
           SET name = EXCLUDED.name,
               role = EXCLUDED.role,
               performance = EXCLUDED.performance,
               experience_years = EXCLUDED.experience_years,
               salary = EXCLUDED.salary,
               revenue = EXCLUDED.revenue,
               updated_at = EXCLUDED.updated_at
        RETURNING`+employeeColumns+`
    `,
		e.SSID,
		e.Name,
		e.Role,
		performance,
		e.ExperienceYears,
		e.Salary,
		e.Revenue,
		string(e.Status),
		e.CreatedAt,
		e.UpdatedAt,
	)

	saved, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return saved, nil
}

// Update は従業員レコード全体を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	performance, err := json.Marshal(e.Performance)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal performance: %w", err)
	}

	suggestion, err := marshalSuggestion(e.Suggestion)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET name = $1,
               role = $2,
               performance = $3,
               experience_years = $4,
               salary = $5,
               revenue = $6,
               status = $7,
               suggestion = $8,
               last_analyzed_at = $9,
               last_promoted_at = $10,
               terminated_at = $11,
               updated_at = $12
         WHERE ssid = $13
        RETURNING`+employeeColumns+`
    `,
		e.Name,
		e.Role,
		performance,
		e.ExperienceYears,
		e.Salary,
		e.Revenue,
		string(e.Status),
		suggestion,
		nullableTime(e.LastAnalyzedAt),
		nullableTime(e.LastPromotedAt),
		nullableTime(e.TerminatedAt),
		e.UpdatedAt,
		e.SSID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindBySSID は SSID で従業員を取得します。
func (r *EmployeeRepository) FindBySSID(ctx context.Context, ssid string) (*employee.Employee, error) {
	return r.findBySSID(ctx, ssid, false)
}

// FindBySSIDForUpdate は行ロック付きで従業員を取得します。
func (r *EmployeeRepository) FindBySSIDForUpdate(ctx context.Context, ssid string) (*employee.Employee, error) {
	return r.findBySSID(ctx, ssid, true)
}

func (r *EmployeeRepository) findBySSID(ctx context.Context, ssid string, forUpdate bool) (*employee.Employee, error) {
	query := `
        SELECT` + employeeColumns + `
          FROM employees
         WHERE ssid = $1
    `
	if forUpdate {
		query += ` FOR UPDATE`
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, query, ssid)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// ListByStatus は指定ステータスの従業員一覧を返します。
func (r *EmployeeRepository) ListByStatus(ctx context.Context, statuses []employee.Status) ([]*employee.Employee, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+employeeColumns+`
          FROM employees
         WHERE status = ANY($1)
         ORDER BY created_at, ssid
    `, values)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

// StoreSuggestion は提案スナップショットと分析時刻を置き換えます。
func (r *EmployeeRepository) StoreSuggestion(ctx context.Context, ssid string, suggestion *employee.Suggestion, analyzedAt time.Time) error {
	payload, err := marshalSuggestion(suggestion)
	if err != nil {
		return err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET suggestion = $1,
               last_analyzed_at = $2,
               updated_at = $2
         WHERE ssid = $3
    `, payload, analyzedAt, ssid)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		ssid            string
		name            string
		role            string
		performanceRaw  []byte
		experienceYears float64
		salary          float64
		revenue         float64
		status          string
		suggestionRaw   []byte
		lastAnalyzedAt  sql.NullTime
		lastPromotedAt  sql.NullTime
		terminatedAt    sql.NullTime
		createdAt       time.Time
		updatedAt       time.Time
	)

	if err := row.Scan(
		&ssid,
		&name,
		&role,
		&performanceRaw,
		&experienceYears,
		&salary,
		&revenue,
		&status,
		&suggestionRaw,
		&lastAnalyzedAt,
		&lastPromotedAt,
		&terminatedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrNotFound
		}
		return nil, err
	}

	var performance employee.Performance
	if len(performanceRaw) > 0 {
		if err := json.Unmarshal(performanceRaw, &performance); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal performance: %w", err)
		}
	}

	var suggestion *employee.Suggestion
	if len(suggestionRaw) > 0 {
		suggestion = &employee.Suggestion{}
		if err := json.Unmarshal(suggestionRaw, suggestion); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal suggestion: %w", err)
		}
	}

	return &employee.Employee{
		SSID:            ssid,
		Name:            name,
		Role:            role,
		Performance:     performance,
		ExperienceYears: experienceYears,
		Salary:          salary,
		Revenue:         revenue,
		Status:          employee.Status(status),
		Suggestion:      suggestion,
		LastAnalyzedAt:  timePointer(lastAnalyzedAt),
		LastPromotedAt:  timePointer(lastPromotedAt),
		TerminatedAt:    timePointer(terminatedAt),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == checkViolationCode {
		return employee.ErrInvalidStatus
	}

	return err
}

func marshalSuggestion(suggestion *employee.Suggestion) (any, error) {
	if suggestion == nil {
		return nil, nil
	}
	payload, err := json.Marshal(suggestion)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal suggestion: %w", err)
	}
	return payload, nil
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func timePointer(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
