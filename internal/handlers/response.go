package handlers

import (
	"errors"
	"io"
	"net/http"

	"todo-api/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const msgInvalidBody = "Invalid request body"

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindMissingField, services.KindInvalidStatus, services.KindInvalidInput, services.KindDuplicateAccount:
		return http.StatusBadRequest
	case services.KindInvalidCredentials, services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusForKind(services.KindOf(err)), gin.H{
		"message": services.MessageOf(err),
		"success": false,
	})
}

func respondUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"message": services.MsgUnauthenticated,
		"success": false,
	})
}

// bindJSON decodes the body into dst. An empty body decodes as an empty
// object so that field checks produce their own messages.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"message": msgInvalidBody,
			"success": false,
		})
		return false
	}
	return true
}
