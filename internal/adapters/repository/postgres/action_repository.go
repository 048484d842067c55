package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/comp-decision-engine/internal/core/action"
	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
	pgdb "github.com/ogurasousui/comp-decision-engine/internal/platform/db/postgres"
)

const foreignKeyViolationCode = "23503"

const actionColumns = `
       id,
       employee_ssid,
       action,
       note,
       effect,
       applied_at`

// ActionRepository は PostgreSQL を利用したアクション履歴永続化の実装です。
// 履歴テーブルは追記専用で、更新・削除クエリを持ちません。
type ActionRepository struct {
	pool pgdb.Queryer
}

// NewActionRepository は ActionRepository を生成します。
func NewActionRepository(pool pgdb.Queryer) *ActionRepository {
	return &ActionRepository{pool: pool}
}

// Insert は監査レコードを追記します。
func (r *ActionRepository) Insert(ctx context.Context, record *action.Record) (*action.Record, error) {
	effect, err := json.Marshal(record.Effect)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal effect: %w", err)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO compensation_actions (id, employee_ssid, action, note, effect, applied_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING`+actionColumns+`
    `,
		record.ID,
		record.EmployeeSSID,
		string(record.Action),
		record.Note,
		effect,
		record.AppliedAt,
	)

	inserted, err := scanActionRecord(row)
	if err != nil {
		return nil, translateActionPgError(err)
	}
	return inserted, nil
}

// ListByEmployee は従業員の履歴を適用時刻の新しい順で返します。
func (r *ActionRepository) ListByEmployee(ctx context.Context, ssid string) ([]*action.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+actionColumns+`
          FROM compensation_actions
         WHERE employee_ssid = $1
         ORDER BY applied_at DESC, id DESC
    `, ssid)
	if err != nil {
		return nil, translateActionPgError(err)
	}
	defer rows.Close()

	return collectActionRecords(rows)
}

// ListAll は全従業員の履歴を適用時刻の新しい順で limit 件まで返します。
func (r *ActionRepository) ListAll(ctx context.Context, limit int) ([]*action.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+actionColumns+`
          FROM compensation_actions
         ORDER BY applied_at DESC, id DESC
         LIMIT $1
    `, limit)
	if err != nil {
		return nil, translateActionPgError(err)
	}
	defer rows.Close()

	return collectActionRecords(rows)
}

func collectActionRecords(rows pgx.Rows) ([]*action.Record, error) {
	records := make([]*action.Record, 0)
	for rows.Next() {
		record, err := scanActionRecord(rows)
		if err != nil {
			return nil, translateActionPgError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, translateActionPgError(err)
	}
	return records, nil
}

func scanActionRecord(row pgx.Row) (*action.Record, error) {
	var (
		id        string
		ssid      string
		act       string
		note      string
		effectRaw []byte
		appliedAt time.Time
	)

	if err := row.Scan(&id, &ssid, &act, &note, &effectRaw, &appliedAt); err != nil {
		return nil, err
	}

	var effect action.Effect
	if len(effectRaw) > 0 {
		if err := json.Unmarshal(effectRaw, &effect); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal effect: %w", err)
		}
	}

	return &action.Record{
		ID:           id,
		EmployeeSSID: ssid,
		Action:       employee.Action(act),
		Note:         note,
		Effect:       effect,
		AppliedAt:    appliedAt,
	}, nil
}

func translateActionPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
		return employee.ErrNotFound
	}

	return err
}
