package middleware

import (
	"context"
	"errors"
	"net/http"

	"todo-api/backend/internal/logging"
	"todo-api/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

const userIDKey = "user_id"

type SessionVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// Authenticate resolves the session cookie to a user id and stores it on the
// context. Every rejection reason gets the same 401 response; a failure of
// the session backend itself is a 500.
func Authenticate(sessions SessionVerifier, cookieName string, logger *logrus.Logger) gin.HandlerFunc {
	logger = logging.OrDiscard(logger)

	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			abortUnauthenticated(c)
			return
		}

		userID, err := sessions.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidSession) {
				logger.WithError(err).WithField("request_id", RequestIDFrom(c)).Debug("session rejected")
				abortUnauthenticated(c)
				return
			}
			logger.WithError(err).WithField("request_id", RequestIDFrom(c)).Error("session verification failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": services.MsgInternal,
				"success": false,
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": services.MsgUnauthenticated,
		"success": false,
	})
}

// UserIDFrom returns the identity stored by Authenticate.
func UserIDFrom(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
