package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/sqldojo/internal/services"

	"github.com/gin-gonic/gin"
)

type getTaskController struct{ svc services.CatalogService }

func NewGetTaskController(svc services.CatalogService) *getTaskController {
	return &getTaskController{svc}
}

func (h *getTaskController) Handle(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}
	task, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		taskNotFound(c, id)
		return
	}
	c.JSON(http.StatusOK, task)
}
