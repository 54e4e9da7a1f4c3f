package controllers

import (
	"net/http"
	"strings"

	"github.com/osvaldoandrade/sqldojo/internal/services"

	"github.com/gin-gonic/gin"
)

type datasetController struct{ svc services.CatalogService }

func NewDatasetController(svc services.CatalogService) *datasetController {
	return &datasetController{svc}
}

// Handle returns the dataset description, or the raw setup script when the
// client asks for text/plain or sql.
func (h *datasetController) Handle(c *gin.Context) {
	info := h.svc.Dataset(c.Request.Context())
	if c.Query("format") == "sql" || strings.HasPrefix(c.GetHeader("Accept"), "text/plain") {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(info.Script))
		return
	}
	c.JSON(http.StatusOK, info)
}
