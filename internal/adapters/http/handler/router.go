package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/comp-decision-engine/internal/core/action"
	"github.com/ogurasousui/comp-decision-engine/internal/core/compensation"
	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// NewRouter は API ルートを登録した gin エンジンを構築します。
func NewRouter(employees employee.UseCase, analyzer compensation.UseCase, actions action.UseCase, formatter AmountFormatter) *gin.Engine {
	employeeHandler := NewEmployeeHandler(employees)
	analyzeHandler := NewAnalyzeHandler(analyzer, formatter)
	actionHandler := NewActionHandler(actions)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/employees", employeeHandler.Upsert)
		v1.GET("/employees", employeeHandler.List)
		v1.GET("/employees/:ssid", employeeHandler.Get)

		v1.POST("/analyze", analyzeHandler.Analyze)

		v1.POST("/employees/:ssid/actions", actionHandler.Apply)
		v1.GET("/employees/:ssid/actions", actionHandler.ListByEmployee)
		v1.GET("/actions", actionHandler.ListAll)
	}

	return router
}
