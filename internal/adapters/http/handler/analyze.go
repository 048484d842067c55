package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/comp-decision-engine/internal/core/compensation"
	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// AmountFormatter は金額の表示用整形の抽象です。
type AmountFormatter interface {
	Format(amount float64) string
}

// AnalyzeHandler は一括分析の HTTP 実装です。
type AnalyzeHandler struct {
	svc       compensation.UseCase
	formatter AmountFormatter
}

// NewAnalyzeHandler は AnalyzeHandler を生成します。
func NewAnalyzeHandler(svc compensation.UseCase, formatter AmountFormatter) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc, formatter: formatter}
}

type analyzeRequest struct {
	Budget *float64 `json:"budget"`
}

type analyzeResultResponse struct {
	Employee               employeeResponse     `json:"employee"`
	Suggestion             *employee.Suggestion `json:"suggestion"`
	CurrentSalaryDisplay   string               `json:"current_salary_display"`
	SuggestedSalaryDisplay string               `json:"suggested_salary_display"`
}

type analyzeSummaryResponse struct {
	TotalEmployees         int                     `json:"total_employees"`
	Budget                 *float64                `json:"budget"`
	TotalCurrentSalaries   float64                 `json:"total_current_salaries"`
	TotalSuggestedSalaries float64                 `json:"total_suggested_salaries"`
	TotalRevenue           float64                 `json:"total_revenue"`
	ActionCounts           map[employee.Action]int `json:"action_counts"`
	ProjectedSavings       float64                 `json:"projected_savings"`
	CurrentProfitMargin    float64                 `json:"current_profit_margin"`
	ProjectedProfitMargin  float64                 `json:"projected_profit_margin"`
}

// Analyze は ACTIVE な全従業員を分析し、結果と集計を返します。
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := h.svc.AnalyzeCompany(c.Request.Context(), compensation.AnalyzeInput{Budget: req.Budget})
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]analyzeResultResponse, 0, len(batch.Results))
	for _, result := range batch.Results {
		results = append(results, analyzeResultResponse{
			Employee:               toEmployeeResponse(result.Employee),
			Suggestion:             result.Suggestion,
			CurrentSalaryDisplay:   h.formatter.Format(result.Employee.Salary),
			SuggestedSalaryDisplay: h.formatter.Format(result.Suggestion.SuggestedSalary),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"summary": analyzeSummaryResponse{
			TotalEmployees:         batch.Summary.TotalEmployees,
			Budget:                 batch.Summary.Budget,
			TotalCurrentSalaries:   batch.Summary.TotalCurrentSalaries,
			TotalSuggestedSalaries: batch.Summary.TotalSuggestedSalaries,
			TotalRevenue:           batch.Summary.TotalRevenue,
			ActionCounts:           batch.Summary.ActionCounts,
			ProjectedSavings:       batch.Summary.ProjectedSavings,
			CurrentProfitMargin:    batch.Summary.CurrentProfitMargin,
			ProjectedProfitMargin:  batch.Summary.ProjectedProfitMargin,
		},
	})
}
