package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/comp-decision-engine/internal/core/action"
	"github.com/ogurasousui/comp-decision-engine/internal/core/compensation"
	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// validationErrors は 400 Bad Request に対応付けるドメインエラーです。
var validationErrors = []error{
	employee.ErrInvalidSSID,
	employee.ErrInvalidName,
	employee.ErrInvalidExperience,
	employee.ErrInvalidSalary,
	employee.ErrInvalidRevenue,
	employee.ErrInvalidPerformance,
	employee.ErrInvalidStatus,
	action.ErrInvalidAction,
	action.ErrAlreadyFired,
	compensation.ErrNoEmployees,
}

func toHTTPStatus(err error) int {
	if errors.Is(err, employee.ErrNotFound) {
		return http.StatusNotFound
	}
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(toHTTPStatus(err), gin.H{"error": err.Error()})
}
