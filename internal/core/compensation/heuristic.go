package compensation

import (
	"fmt"
	"math"
	"strings"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// SourceHeuristic は決定論的パスが生成した提案のソースタグです。
const SourceHeuristic = "heuristic"

const (
	// profitMarginTarget は売上ベース給与の算定に使う目標利益率です (会社側 60%)。
	profitMarginTarget = 0.4

	salaryRoundingStep = 1000

	defaultPerformanceScore = 5

	// neutralRevenueMultiplier は売上帰属のない従業員の推定売上に使う係数です。
	// 軽度の黒字を仮定し、売上データ不足だけで FIRE 判定に落ちないようにします。
	neutralRevenueMultiplier = 1.1

	tightBudgetFactor    = 0.85
	generousBudgetFactor = 1.1

	promoteChangePercent  = 10.0
	decreaseChangePercent = -10.0
)

// qualitativeScores は定性ラベルの対応表です。上から順に部分一致で評価します。
var qualitativeScores = []struct {
	substr string
	score  float64
}{
	{"excel", 9},
	{"ex", 9},
	{"good", 7},
	{"avg", 5},
	{"average", 5},
	{"poor", 2},
	{"low", 2},
}

// Scorer は決定論的な給与・アクション推奨を計算します。外部呼び出しを持たず、
// 同一入力に対して常に同一の提案を返します。
type Scorer struct {
	bands BandTable
}

// NewScorer は Scorer を生成します。bands が nil の場合は既定のテーブルを使います。
func NewScorer(bands BandTable) *Scorer {
	if bands == nil {
		bands = NewBandTable(nil)
	}
	return &Scorer{bands: bands}
}

// Bands は参照中のレンジテーブルを返します。
func (s *Scorer) Bands() BandTable {
	return s.bands
}

// Score は従業員と予算から提案を計算します。budget が nil なら予算制約なし、
// totalEmployees は予算を分け合う人数です (0 以下は 1 として扱います)。
func (s *Scorer) Score(emp *employee.Employee, budget *float64, totalEmployees int) *employee.Suggestion {
	if totalEmployees <= 0 {
		totalEmployees = 1
	}

	band := s.bands.Lookup(emp.Role)
	perf := performanceScore(emp.Performance)

	base := baseSalary(band, emp.ExperienceYears)
	perfMultiplier := 0.8 + perf/10*0.4

	var revenueBased float64
	if emp.Revenue > 0 {
		revenueBased = emp.Revenue * (1 - profitMarginTarget)
	}

	factor := budgetFactor(budget, totalEmployees, base)

	marketPath := base * perfMultiplier
	suggested := marketPath
	if revenueBased > 0 {
		suggested = 0.4*marketPath + 0.6*revenueBased
	}
	suggested *= factor

	suggested = math.Round(suggested/salaryRoundingStep) * salaryRoundingStep
	suggested = clamp(suggested, 0.9*band.Min, 1.2*band.Max)

	var diff float64
	var diffPercent int
	if emp.Salary > 0 {
		diff = suggested - emp.Salary
		diffPercent = int(math.Round(100 * diff / emp.Salary))
	}

	estRevenue := emp.Revenue
	if estRevenue <= 0 {
		estRevenue = suggested * neutralRevenueMultiplier
	}
	estProfit := estRevenue - suggested

	action, score := decide(perf, suggested, estProfit, emp.ExperienceYears, budget)
	confidence := clamp(0.5+math.Abs(score)/10, 0.2, 0.95)

	return &employee.Suggestion{
		Action:                   action,
		Confidence:               confidence,
		Reason:                   decisionReason(action, perf, suggested, estProfit),
		RecommendedChangePercent: recommendedChangePercent(action),
		CurrentSalary:            emp.Salary,
		SuggestedSalary:          suggested,
		SalaryDifference:         diff,
		SalaryDifferencePercent:  diffPercent,
		SalaryReason: fmt.Sprintf(
			"base %.0f x performance %.2f, revenue path %.0f, budget factor %.2f, clamped to market band [%.0f, %.0f]",
			base, perfMultiplier, revenueBased, factor, 0.9*band.Min, 1.2*band.Max,
		),
		MarketRange: band,
		Factors: employee.Factors{
			BaseSalary:         base,
			PerfMultiplier:     perfMultiplier,
			RevenueBasedSalary: revenueBased,
			BudgetFactor:       factor,
		},
		EstimatedRevenue: estRevenue,
		EstimatedProfit:  estProfit,
		Source:           SourceHeuristic,
	}
}

// performanceScore は評価を 0-10 の正準スコアに正規化します。
func performanceScore(p employee.Performance) float64 {
	if p.Score != nil {
		return clamp(*p.Score, 0, 10)
	}
	label := strings.ToLower(strings.TrimSpace(p.Label))
	if label == "" {
		return defaultPerformanceScore
	}
	for _, entry := range qualitativeScores {
		if strings.Contains(label, entry.substr) {
			return entry.score
		}
	}
	return defaultPerformanceScore
}

// baseSalary は経験年数からレンジ内の基準給与を区分線形に補間します。
func baseSalary(band employee.MarketRange, years float64) float64 {
	if years < 0 {
		years = 0
	}
	switch {
	case years <= 2:
		return band.Min + (band.Mid-band.Min)*(years/2)
	case years <= 5:
		upper := band.Mid + 0.5*(band.Max-band.Mid)
		return band.Mid + (upper-band.Mid)*((years-2)/3)
	default:
		// 2 年超過分 8 年で max に飽和します。
		t := math.Min((years-2)/8, 1)
		return band.Mid + (band.Max-band.Mid)*t
	}
}

func budgetFactor(budget *float64, totalEmployees int, base float64) float64 {
	if budget == nil || base <= 0 {
		return 1
	}
	average := *budget / float64(totalEmployees)
	switch {
	case average < 0.8*base:
		return tightBudgetFactor
	case average > 1.5*base:
		return generousBudgetFactor
	default:
		return 1
	}
}

// decide は優先順位付きの閾値ルールでアクションを決め、信頼度算出用のスコアを返します。
func decide(perf, estSalary, estProfit, years float64, budget *float64) (employee.Action, float64) {
	var profitRatio float64
	if estSalary > 0 {
		profitRatio = estProfit / estSalary
	}

	score := 4*profitRatio + 0.5*(perf-defaultPerformanceScore) + 0.1*math.Min(years, 10)
	if budget != nil && *budget < 0 {
		score = -score
	}

	switch {
	case perf <= 3 || estProfit < -0.2*estSalary:
		return employee.ActionFire, score
	case perf >= 8 && estProfit > 0.2*estSalary && (budget == nil || *budget > 0.1*estSalary):
		return employee.ActionPromote, score
	case profitRatio < 0.05 || (budget != nil && *budget < 0):
		return employee.ActionDecreaseSalary, score
	default:
		return employee.ActionNoChange, score
	}
}

func recommendedChangePercent(action employee.Action) float64 {
	switch action {
	case employee.ActionPromote:
		return promoteChangePercent
	case employee.ActionDecreaseSalary:
		return decreaseChangePercent
	default:
		return 0
	}
}

func decisionReason(action employee.Action, perf, estSalary, estProfit float64) string {
	var profitPercent float64
	if estSalary > 0 {
		profitPercent = 100 * estProfit / estSalary
	}
	return fmt.Sprintf("%s: performance %.1f/10, estimated profit %.0f (%.0f%% of suggested salary)",
		action, perf, estProfit, profitPercent)
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
