package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// EmployeeHandler は従業員レコード操作の HTTP 実装です。
type EmployeeHandler struct {
	svc employee.UseCase
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// performanceInput は数値・文字列・オブジェクトのいずれでも受け付ける評価入力です。
type performanceInput struct {
	employee.Performance
}

func (p *performanceInput) UnmarshalJSON(b []byte) error {
	var num float64
	if err := json.Unmarshal(b, &num); err == nil {
		p.Score = &num
		p.Label = ""
		return nil
	}

	var label string
	if err := json.Unmarshal(b, &label); err == nil {
		p.Score = nil
		p.Label = label
		return nil
	}

	var obj struct {
		Score *float64 `json:"score"`
		Label string   `json:"label"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	p.Score = obj.Score
	p.Label = obj.Label
	return nil
}

type upsertEmployeeRequest struct {
	SSID            string           `json:"ssid"`
	Name            string           `json:"name"`
	Role            string           `json:"role"`
	Performance     performanceInput `json:"performance"`
	ExperienceYears float64          `json:"experience_years"`
	Salary          float64          `json:"salary"`
	Revenue         float64          `json:"revenue"`
}

type employeeResponse struct {
	SSID            string               `json:"ssid"`
	Name            string               `json:"name"`
	Role            string               `json:"role"`
	Performance     employee.Performance `json:"performance"`
	ExperienceYears float64              `json:"experience_years"`
	Salary          float64              `json:"salary"`
	Revenue         float64              `json:"revenue"`
	Status          employee.Status      `json:"status"`
	Suggestion      *employee.Suggestion `json:"suggestion,omitempty"`
	LastAnalyzedAt  *time.Time           `json:"last_analyzed_at,omitempty"`
	LastPromotedAt  *time.Time           `json:"last_promoted_at,omitempty"`
	TerminatedAt    *time.Time           `json:"terminated_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toEmployeeResponse(emp *employee.Employee) employeeResponse {
	return employeeResponse{
		SSID:            emp.SSID,
		Name:            emp.Name,
		Role:            emp.Role,
		Performance:     emp.Performance,
		ExperienceYears: emp.ExperienceYears,
		Salary:          emp.Salary,
		Revenue:         emp.Revenue,
		Status:          emp.Status,
		Suggestion:      emp.Suggestion,
		LastAnalyzedAt:  emp.LastAnalyzedAt,
		LastPromotedAt:  emp.LastPromotedAt,
		TerminatedAt:    emp.TerminatedAt,
		CreatedAt:       emp.CreatedAt,
		UpdatedAt:       emp.UpdatedAt,
	}
}

// Upsert は従業員レコードを作成または置換します。
func (h *EmployeeHandler) Upsert(c *gin.Context) {
	var req upsertEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.svc.UpsertEmployee(c.Request.Context(), employee.UpsertEmployeeInput{
		SSID:            req.SSID,
		Name:            req.Name,
		Role:            req.Role,
		Performance:     req.Performance.Performance,
		ExperienceYears: req.ExperienceYears,
		Salary:          req.Salary,
		Revenue:         req.Revenue,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEmployeeResponse(saved))
}

// Get は SSID で従業員を取得します。
func (h *EmployeeHandler) Get(c *gin.Context) {
	found, err := h.svc.GetEmployee(c.Request.Context(), employee.GetEmployeeInput{SSID: c.Param("ssid")})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEmployeeResponse(found))
}

// List は従業員一覧を取得します。status クエリはカンマ区切りで複数指定できます。
func (h *EmployeeHandler) List(c *gin.Context) {
	var statuses []employee.Status
	if raw := c.Query("status"); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			statuses = append(statuses, employee.Status(strings.ToUpper(strings.TrimSpace(value))))
		}
	}

	employees, err := h.svc.ListEmployees(c.Request.Context(), employee.ListEmployeesInput{Statuses: statuses})
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]employeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, toEmployeeResponse(emp))
	}

	c.JSON(http.StatusOK, gin.H{"employees": responses})
}
