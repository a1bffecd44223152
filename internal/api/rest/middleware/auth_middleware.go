package middleware

import (
	"net/http"
	"strings"

	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/Dhoini/Entitlement-service/pkg/res"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccountIDKey ключ контекста Gin с ID аутентифицированного аккаунта
const AccountIDKey = "accountID"

// AuthMiddleware проверяет bearer-токен и кладет ID аккаунта в контекст.
// Токен подписан HMAC, аккаунт берется из claim-а sub.
func AuthMiddleware(secret string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, res.ErrorResponse{
				Error:     "missing bearer token",
				ErrorCode: "AuthError",
			})
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Warnw("Rejected request with invalid token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, res.ErrorResponse{
				Error:     "invalid bearer token",
				ErrorCode: "AuthError",
			})
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, res.ErrorResponse{
				Error:     "token has no subject",
				ErrorCode: "AuthError",
			})
			return
		}

		accountID, err := uuid.Parse(subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, res.ErrorResponse{
				Error:     "token subject is not an account id",
				ErrorCode: "AuthError",
			})
			return
		}

		c.Set(AccountIDKey, accountID)
		c.Next()
	}
}

// AccountID извлекает ID аккаунта, положенный AuthMiddleware
func AccountID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(AccountIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
