package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/comp-decision-engine/internal/core/action"
	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// ActionHandler はアクション適用と履歴参照の HTTP 実装です。
type ActionHandler struct {
	svc action.UseCase
}

// NewActionHandler は ActionHandler を生成します。
func NewActionHandler(svc action.UseCase) *ActionHandler {
	return &ActionHandler{svc: svc}
}

type applyActionRequest struct {
	Action  string   `json:"action"`
	Note    string   `json:"note"`
	Percent *float64 `json:"percent"`
}

type actionRecordResponse struct {
	ID           string          `json:"id"`
	EmployeeSSID string          `json:"employee_ssid"`
	Action       employee.Action `json:"action"`
	Note         string          `json:"note,omitempty"`
	Effect       action.Effect   `json:"effect"`
	AppliedAt    time.Time       `json:"applied_at"`
}

func toActionRecordResponse(record *action.Record) actionRecordResponse {
	return actionRecordResponse{
		ID:           record.ID,
		EmployeeSSID: record.EmployeeSSID,
		Action:       record.Action,
		Note:         record.Note,
		Effect:       record.Effect,
		AppliedAt:    record.AppliedAt,
	}
}

// Apply は承認済みアクションを従業員へ適用します。
func (h *ActionHandler) Apply(c *gin.Context) {
	var req applyActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Apply(c.Request.Context(), action.ApplyInput{
		SSID:            c.Param("ssid"),
		Action:          employee.Action(strings.ToUpper(strings.TrimSpace(req.Action))),
		Note:            req.Note,
		PercentOverride: req.Percent,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employee": toEmployeeResponse(result.Employee),
		"record":   toActionRecordResponse(result.Record),
	})
}

// ListByEmployee は従業員のアクション履歴を新しい順で返します。
func (h *ActionHandler) ListByEmployee(c *gin.Context) {
	records, err := h.svc.ListByEmployee(c.Request.Context(), action.ListByEmployeeInput{SSID: c.Param("ssid")})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": toActionRecordResponses(records)})
}

// ListAll は全従業員のアクション履歴を新しい順で返します。
func (h *ActionHandler) ListAll(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	records, err := h.svc.ListAll(c.Request.Context(), action.ListAllInput{Limit: limit})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": toActionRecordResponses(records)})
}

func toActionRecordResponses(records []*action.Record) []actionRecordResponse {
	responses := make([]actionRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toActionRecordResponse(record))
	}
	return responses
}
