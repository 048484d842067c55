package action

import (
	"time"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// Effect はアクション適用の効果詳細です。アクション種別に応じて埋まる
// フィールドが変わります。給与変更は前後の給与と変更率、解雇は前後の
// ステータス、NO_CHANGE は変化しなかった給与のみを記録します。
type Effect struct {
	PreviousSalary *float64         `json:"previous_salary,omitempty"`
	NewSalary      *float64         `json:"new_salary,omitempty"`
	ChangePercent  *float64         `json:"change_percent,omitempty"`
	PreviousStatus *employee.Status `json:"previous_status,omitempty"`
	NewStatus      *employee.Status `json:"new_status,omitempty"`
	Salary         *float64         `json:"salary,omitempty"`
}

// Record はアクション適用の監査レコードです。作成後は変更も削除もされません。
type Record struct {
	ID           string
	EmployeeSSID string
	Action       employee.Action
	Note         string
	Effect       Effect
	AppliedAt    time.Time
}
