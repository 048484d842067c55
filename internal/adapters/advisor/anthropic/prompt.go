package anthropic

import (
	"fmt"
	"strings"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// buildPrompt は従業員属性・市場レンジ・ヒューリスティックの計算結果を
// 文脈として埋め込んだプロンプトを構築します。ヒューリスティックの数値は
// 参考情報であり、制約として扱わないよう指示します。
func buildPrompt(emp *employee.Employee, heuristic *employee.Suggestion, budget *float64, totalEmployees int) string {
	var b strings.Builder

	b.WriteString("You are a compensation advisor. Decide one compensation action and a target salary for the employee below.\n\n")

	fmt.Fprintf(&b, "Employee:\n")
	fmt.Fprintf(&b, "- name: %s\n", emp.Name)
	fmt.Fprintf(&b, "- role: %s\n", emp.Role)
	fmt.Fprintf(&b, "- performance: %s\n", performanceText(emp.Performance))
	fmt.Fprintf(&b, "- experience: %.1f years\n", emp.ExperienceYears)
	fmt.Fprintf(&b, "- current salary: %.0f\n", emp.Salary)
	fmt.Fprintf(&b, "- attributed revenue: %.0f\n", emp.Revenue)

	fmt.Fprintf(&b, "\nMarket salary range for the role: min %.0f, mid %.0f, max %.0f\n",
		heuristic.MarketRange.Min, heuristic.MarketRange.Mid, heuristic.MarketRange.Max)

	if budget != nil {
		fmt.Fprintf(&b, "Company budget: %.0f shared by %d employees\n", *budget, totalEmployees)
	} else {
		b.WriteString("Company budget: unconstrained\n")
	}

	fmt.Fprintf(&b, "\nFor reference only (not a constraint), a deterministic model computed: action %s, suggested salary %.0f, base salary %.0f, performance multiplier %.2f, revenue-based salary %.0f, budget factor %.2f.\n",
		heuristic.Action, heuristic.SuggestedSalary,
		heuristic.Factors.BaseSalary, heuristic.Factors.PerfMultiplier,
		heuristic.Factors.RevenueBasedSalary, heuristic.Factors.BudgetFactor)

	b.WriteString("\nRespond with a single JSON object and nothing else, with exactly these keys:\n")
	b.WriteString("{\n")
	b.WriteString("  \"action\": \"PROMOTE\" | \"FIRE\" | \"DECREASE_SALARY\" | \"NO_CHANGE\",\n")
	b.WriteString("  \"confidence\": <number between 0 and 1>,\n")
	b.WriteString("  \"reason\": \"<short reason>\",\n")
	b.WriteString("  \"salary_change_percent\": <signed number>,\n")
	b.WriteString("  \"suggested_salary\": <full integer amount in currency units, never abbreviated units like thousands>,\n")
	b.WriteString("  \"salary_reason\": \"<short salary rationale>\"\n")
	b.WriteString("}\n")

	return b.String()
}

func performanceText(p employee.Performance) string {
	if p.Score != nil {
		return fmt.Sprintf("%.1f/10", *p.Score)
	}
	if p.Label != "" {
		return p.Label
	}
	return "unknown"
}
