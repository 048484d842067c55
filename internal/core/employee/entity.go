package employee

import "time"

// Status は従業員の在籍状態を表します。遷移は ACTIVE → FIRED の一方向のみです。
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusFired  Status = "FIRED"
)

// Action は報酬アクションの種別を表します。
type Action string

const (
	ActionPromote        Action = "PROMOTE"
	ActionFire           Action = "FIRE"
	ActionDecreaseSalary Action = "DECREASE_SALARY"
	ActionNoChange       Action = "NO_CHANGE"
)

// IsValid はアクションが既知の種別かどうかを返します。
func (a Action) IsValid() bool {
	switch a {
	case ActionPromote, ActionFire, ActionDecreaseSalary, ActionNoChange:
		return true
	default:
		return false
	}
}

// Performance は従業員の評価です。数値スコア (0-10) と定性ラベルのどちらか一方を持ちます。
type Performance struct {
	Score *float64 `json:"score,omitempty"`
	Label string   `json:"label,omitempty"`
}

// IsNumeric は数値スコアを持つかどうかを返します。
func (p Performance) IsNumeric() bool {
	return p.Score != nil
}

// MarketRange は役職に対する市場給与レンジです。
type MarketRange struct {
	Min float64 `json:"min"`
	Mid float64 `json:"mid"`
	Max float64 `json:"max"`
}

// Factors は給与算定の内訳です。
type Factors struct {
	BaseSalary         float64 `json:"base_salary"`
	PerfMultiplier     float64 `json:"perf_multiplier"`
	RevenueBasedSalary float64 `json:"revenue_based_salary"`
	BudgetFactor       float64 `json:"budget_factor"`
}

// Suggestion は直近の分析が生成した推奨のスナップショットです。
// 分析のたびに丸ごと置き換えられ、独立した履歴は持ちません。
type Suggestion struct {
	Action                   Action      `json:"action"`
	Confidence               float64     `json:"confidence"`
	Reason                   string      `json:"reason"`
	RecommendedChangePercent float64     `json:"recommended_change_percent"`
	CurrentSalary            float64     `json:"current_salary"`
	SuggestedSalary          float64     `json:"suggested_salary"`
	SalaryDifference         float64     `json:"salary_difference"`
	SalaryDifferencePercent  int         `json:"salary_difference_percent"`
	SalaryReason             string      `json:"salary_reason"`
	MarketRange              MarketRange `json:"market_range"`
	Factors                  Factors     `json:"factors"`
	EstimatedRevenue         float64     `json:"estimated_revenue"`
	EstimatedProfit          float64     `json:"estimated_profit"`
	Source                   string      `json:"source"`
}

// Employee は従業員エンティティです。SSID で一意に識別されます。
type Employee struct {
	SSID            string
	Name            string
	Role            string
	Performance     Performance
	ExperienceYears float64
	Salary          float64
	Revenue         float64
	Status          Status
	Suggestion      *Suggestion
	LastAnalyzedAt  *time.Time
	LastPromotedAt  *time.Time
	TerminatedAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
