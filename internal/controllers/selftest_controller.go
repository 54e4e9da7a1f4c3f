package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/sqldojo/internal/services"

	"github.com/gin-gonic/gin"
)

type selfTestController struct{ svc services.GradingService }

func NewSelfTestController(svc services.GradingService) *selfTestController {
	return &selfTestController{svc}
}

func (h *selfTestController) Handle(c *gin.Context) {
	report, err := h.svc.SelfTest(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if report.Failed > 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, report)
}
