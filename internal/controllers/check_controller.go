package controllers

import (
	"errors"
	"net/http"

	"github.com/osvaldoandrade/sqldojo/internal/services"
	"github.com/osvaldoandrade/sqldojo/pkg/domain"

	"github.com/gin-gonic/gin"
)

type checkController struct {
	svc   services.GradingService
	tasks services.CatalogService
}

func NewCheckController(svc services.GradingService, tasks services.CatalogService) *checkController {
	return &checkController{svc: svc, tasks: tasks}
}

func (h *checkController) Handle(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}
	if _, err := h.tasks.Get(c.Request.Context(), id); err != nil {
		taskNotFound(c, id)
		return
	}
	// An absent or blank sql is graded, not rejected.
	var req domain.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `invalid body: expected {"sql": "..."}`})
		return
	}

	out, err := h.svc.Check(c.Request.Context(), id, req.SQL)
	if errors.Is(err, domain.ErrTaskNotFound) {
		taskNotFound(c, id)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Learner mistakes are a successful grading; only tool failures are 5xx.
	status := http.StatusOK
	if out.Internal() {
		status = http.StatusInternalServerError
	}
	c.JSON(status, out)
}
