package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pawhub/internal/core/auth"
	resp "pawhub/internal/transport/http/response"
)

const (
	KeyUserID   = "userId"
	KeyUsername = "username"
	KeyRole     = "role"
)

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(KeyUserID, claims.UID)
	c.Set(KeyUsername, claims.Username)
	c.Set(KeyRole, claims.Role)
	c.Set("claims", claims)
}

func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuthJWT 有 token 就解析身份，没有照常放行（匿名浏览用）
func OptionalAuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if strings.HasPrefix(ah, "Bearer ") {
			if claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer ")); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}
