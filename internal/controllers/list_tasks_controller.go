package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/sqldojo/internal/services"

	"github.com/gin-gonic/gin"
)

type listTasksController struct{ svc services.CatalogService }

func NewListTasksController(svc services.CatalogService) *listTasksController {
	return &listTasksController{svc}
}

func (h *listTasksController) Handle(c *gin.Context) {
	tasks := h.svc.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}
