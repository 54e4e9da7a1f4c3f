package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/sqldojo/internal/services"
	"github.com/osvaldoandrade/sqldojo/pkg/domain"

	"github.com/gin-gonic/gin"
)

type getHintController struct{ svc services.CatalogService }

func NewGetHintController(svc services.CatalogService) *getHintController {
	return &getHintController{svc}
}

func (h *getHintController) Handle(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hint index must be an integer"})
		return
	}

	hint, err := h.svc.Hint(c.Request.Context(), id, n)
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		taskNotFound(c, id)
	case errors.Is(err, domain.ErrHintOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   domain.ErrHintOutOfRange.Error(),
			"message": learnerMessage(err, domain.ErrHintOutOfRange),
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, hint)
	}
}
