package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/studyhub-kr/studyhub-api/internal/application"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
	"github.com/studyhub-kr/studyhub-api/pkg/response"
)

const (
	CtxAccountIDKey = "accountID"
	CtxNicknameKey  = "accountNickname"
	CtxEmailKey     = "accountEmail"
)

// Auth validates the access-token cookie and requires a live session in
// Redis whose sid matches the token's. On success it injects the account's
// id, nickname and email into the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		if rdb != nil {
			key := application.SessionKey(claims.AccountID)
			data, err := rdb.HGetAll(c.Request.Context(), key).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				response.AbortError(c, http.StatusUnauthorized, "session not found", nil)
				return
			}
			c.Set(CtxNicknameKey, data["nickname"])
			c.Set(CtxEmailKey, data["email"])
		}

		c.Set(CtxAccountIDKey, claims.AccountID)
		c.Next()
	}
}
