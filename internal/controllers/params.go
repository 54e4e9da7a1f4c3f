package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/sqldojo/pkg/domain"

	"github.com/gin-gonic/gin"
)

func taskIDParam(c *gin.Context) (int, bool) {
	var id domain.TaskID
	if err := id.UnmarshalText([]byte(c.Param("id"))); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return int(id), true
}

func taskNotFound(c *gin.Context, id int) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   domain.ErrTaskNotFound.Error(),
		"taskId":  id,
		"message": "Unknown task_id. Try: sqldojo tasks",
	})
}

// learnerMessage strips the sentinel prefix from a wrapped error so only the
// human-facing sentence is returned.
func learnerMessage(err error, sentinel error) string {
	msg := err.Error()
	if errors.Is(err, sentinel) {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}
